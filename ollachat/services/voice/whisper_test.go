package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const fakeFFmpeg = `#!/bin/sh
for last; do :; done
cp "$3" "$last"
`

const fakeWhisper = `#!/bin/sh
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then out="$2"; fi
  shift
done
printf '  hello from whisper \n' > "$out.txt"
`

const failing = `#!/bin/sh
echo "boom" >&2
exit 1
`

const slow = `#!/bin/sh
exec sleep 5
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func newTestTranscriber(t *testing.T, ffmpeg, whisper string) (*Transcriber, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	bin := t.TempDir()
	tmp := t.TempDir()
	tr := NewTranscriber(
		writeScript(t, bin, "ffmpeg", ffmpeg),
		writeScript(t, bin, "whisper", whisper),
		"model.bin",
		tmp,
	)
	return tr, tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("temporary file left behind: %s", e.Name())
	}
}

func audio() string {
	return base64.StdEncoding.EncodeToString([]byte("fake-webm-bytes"))
}

func TestTranscribeSuccessCleansUp(t *testing.T) {
	tr, tmp := newTestTranscriber(t, fakeFFmpeg, fakeWhisper)

	res, err := tr.Transcribe(context.Background(), Request{AudioData: audio()})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hello from whisper" {
		t.Errorf("expected trimmed transcript, got %q", res.Text)
	}
	if res.Language != "en" || res.Confidence != 0.9 || res.Duration != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	assertEmptyDir(t, tmp)
}

func TestTranscribeFailureCleansUp(t *testing.T) {
	tests := []struct {
		name    string
		ffmpeg  string
		whisper string
	}{
		{"ffmpeg fails", failing, fakeWhisper},
		{"whisper fails", fakeFFmpeg, failing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, tmp := newTestTranscriber(t, tt.ffmpeg, tt.whisper)
			if _, err := tr.Transcribe(context.Background(), Request{AudioData: audio(), Language: "uk"}); err == nil {
				t.Fatal("expected error")
			}
			assertEmptyDir(t, tmp)
		})
	}
}

func TestTranscribeTimeoutKillsProcess(t *testing.T) {
	tr, tmp := newTestTranscriber(t, slow, fakeWhisper)
	tr.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := tr.Transcribe(context.Background(), Request{AudioData: audio()})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout took too long: %s", time.Since(start))
	}
	assertEmptyDir(t, tmp)
}

func TestTranscribeRejectsBadInput(t *testing.T) {
	tr, tmp := newTestTranscriber(t, fakeFFmpeg, fakeWhisper)
	tests := []Request{
		{},
		{AudioData: "!!!not base64"},
		{AudioData: audio(), Format: "../../etc"},
		{AudioData: audio(), Language: "en; rm -rf"},
	}
	for _, req := range tests {
		if _, err := tr.Transcribe(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("request %+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
	assertEmptyDir(t, tmp)
}

func TestStatus(t *testing.T) {
	tr, _ := newTestTranscriber(t, fakeFFmpeg, "#!/bin/sh\nexit 0\n")
	if st := tr.Status(context.Background()); !st.WhisperAvailable {
		t.Error("expected whisper to be available")
	}

	tr.WhisperPath = filepath.Join(t.TempDir(), "missing")
	st := tr.Status(context.Background())
	if st.WhisperAvailable {
		t.Error("expected missing binary to be unavailable")
	}
	if st.WhisperPath != tr.WhisperPath || st.ModelPath == "" {
		t.Errorf("unexpected status %+v", st)
	}
}
