package storage

import (
	"context"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	body := "hello world"
	if err := store.Put(ctx, "chat/a.txt", strings.NewReader(body), int64(len(body)), "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, "chat/a.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != body {
		t.Errorf("expected %q, got %q", body, got)
	}

	if err := store.Remove(ctx, "chat/a.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Get(ctx, "chat/a.txt"); err == nil {
		t.Error("expected error after remove")
	}
	// removing twice is fine
	if err := store.Remove(ctx, "chat/a.txt"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestDiskStoreKeysStayInsideRoot(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	p, err := store.path("../../etc/passwd")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !strings.HasPrefix(p, store.root) {
		t.Errorf("key escaped root: %s", p)
	}
}
