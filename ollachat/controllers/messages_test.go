package controllers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ollachat/ollachat/services/llm"
	"ollachat/ollachat/sources/psql/models"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "Hello", "Hello"},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{"long", strings.Repeat("a", 60), strings.Repeat("a", 50) + "..."},
		{"multibyte", strings.Repeat("я", 51), strings.Repeat("я", 50) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.in); got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendMessageStoresAndTitlesChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)

	long := strings.Repeat("x", 60)
	resp, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: long}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !resp.Success || resp.ChatID != chat.ID.String() || resp.MessageID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	got, err := f.chats.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if want := strings.Repeat("x", 50) + "..."; got.Chat.Title != want {
		t.Errorf("title = %q, want %q", got.Chat.Title, want)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != long {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}

	// only the first message names the chat
	if _, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: "second"}},
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	got, _ = f.chats.GetChat(ctx, chat.ID)
	if !strings.HasPrefix(got.Chat.Title, "xxxxx") {
		t.Errorf("title changed to %q", got.Chat.Title)
	}
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)

	tests := []struct {
		name string
		req  SendMessageRequest
		kind error
		msg  string
	}{
		{"missing messages", SendMessageRequest{ChatID: chat.ID.String()}, ErrBadRequest, "Messages array is required"},
		{"empty messages", SendMessageRequest{ChatID: chat.ID.String(), Messages: []llm.Turn{}}, ErrBadRequest, "At least one message is required"},
		{"missing chat id", SendMessageRequest{Messages: []llm.Turn{{Role: "user", Content: "hi"}}}, ErrBadRequest, "Chat ID is required"},
		{"unknown chat", SendMessageRequest{ChatID: "8f14e45f-ceea-467f-a0e6-1c3a5b1e2d3f", Messages: []llm.Turn{{Role: "user", Content: "hi"}}}, ErrChatNotFound, "Chat not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.messages.SendMessage(ctx, tt.req)
			assertKind(t, err, tt.kind)
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}

	n, err := f.messageDAO.CountMessages(ctx, chat.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected no stored messages, got %d (%v)", n, err)
	}
}

func TestSendMessageModelUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.available = false
	chat := f.newChat(t)

	_, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: "hi"}},
	})
	assertKind(t, err, ErrModelUnavailable)
	if !strings.Contains(err.Error(), "Model llama3 is not available") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if n, _ := f.messageDAO.CountMessages(ctx, chat.ID); n != 0 {
		t.Errorf("expected nothing stored, got %d messages", n)
	}
	got, _ := f.chats.GetChat(ctx, chat.ID)
	if got.Chat.Title != "New Chat" {
		t.Errorf("title changed to %q", got.Chat.Title)
	}
}

func TestGenerateResponseStoresReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)

	sent, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	out, err := f.messages.GenerateResponse(ctx, GenerateRequest{MessageID: sent.MessageID, ChatID: chat.ID.String()})
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if out.Response != "Hi there" || out.MessageID != sent.MessageID || !out.Done {
		t.Fatalf("unexpected response %+v", out)
	}
	if want := "User: Hello\nAssistant:"; f.gen.prompts[0] != want {
		t.Errorf("prompt = %q, want %q", f.gen.prompts[0], want)
	}

	history, err := f.messageDAO.GetMessagesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessagesByChat: %v", err)
	}
	if len(history) != 2 || history[1].Role != models.RoleAssistant || history[1].Content != "Hi there" {
		t.Fatalf("unexpected history %+v", history)
	}
	got, _ := f.chats.GetChat(ctx, chat.ID)
	if got.Chat.Title != "Hello" {
		t.Errorf("title = %q, assistant reply must not rename the chat", got.Chat.Title)
	}
}

func TestGenerateResponseFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)
	other := f.newChat(t)
	sent, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	_, err = f.messages.GenerateResponse(ctx, GenerateRequest{ChatID: chat.ID.String()})
	assertKind(t, err, ErrBadRequest)

	_, err = f.messages.GenerateResponse(ctx, GenerateRequest{MessageID: sent.MessageID, ChatID: other.ID.String()})
	assertKind(t, err, ErrMessageNotFound)

	f.gen.available = false
	_, err = f.messages.GenerateResponse(ctx, GenerateRequest{MessageID: sent.MessageID, ChatID: chat.ID.String()})
	assertKind(t, err, ErrModelUnavailable)
	if n, _ := f.messageDAO.CountMessages(ctx, chat.ID); n != 1 {
		t.Errorf("expected nothing stored on unavailable model, got %d messages", n)
	}
	if len(f.gen.prompts) != 0 {
		t.Errorf("generate called %d times for an unavailable model", len(f.gen.prompts))
	}
	f.gen.available = true

	f.gen.err = errors.New("connection refused")
	_, err = f.messages.GenerateResponse(ctx, GenerateRequest{MessageID: sent.MessageID, ChatID: chat.ID.String()})
	assertKind(t, err, ErrGenerationFailed)

	if n, _ := f.messageDAO.CountMessages(ctx, chat.ID); n != 1 {
		t.Errorf("expected only the user message, got %d", n)
	}
}

func TestChatOneShotPersistsWhenChatGiven(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)

	out, err := f.messages.Chat(ctx, ChatRequest{
		ChatID: chat.ID.String(),
		Messages: []llm.Turn{
			{Role: "user", Content: "What is Go?"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Response != "Hi there" {
		t.Errorf("response = %q", out.Response)
	}
	if n, _ := f.messageDAO.CountMessages(ctx, chat.ID); n != 2 {
		t.Errorf("expected 2 stored messages, got %d", n)
	}

	// without a chat id nothing is stored
	if _, err := f.messages.Chat(ctx, ChatRequest{Messages: []llm.Turn{{Role: "user", Content: "hi"}}}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
}

func TestStreamResponseEmitsAndStores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.parts = []string{"Hel", "lo", "!"}
	chat := f.newChat(t)
	if _, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: "Hey"}},
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	var got []string
	msg, err := f.messages.StreamResponse(ctx, StreamRequest{ChatID: chat.ID.String()}, func(ev StreamEvent) error {
		got = append(got, ev.Content)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamResponse: %v", err)
	}
	if strings.Join(got, "") != "Hello!" || msg.Content != "Hello!" {
		t.Fatalf("emitted %v, stored %q", got, msg.Content)
	}
}

func TestStatusReportsModel(t *testing.T) {
	f := newFixture(t)
	st := f.messages.Status(context.Background())
	if st.Status != "ok" || !st.OllamaAvailable || st.Model != "llama3" {
		t.Errorf("unexpected status %+v", st)
	}
	f.gen.available = false
	if f.messages.Status(context.Background()).OllamaAvailable {
		t.Error("expected ollama to be reported unavailable")
	}
}
