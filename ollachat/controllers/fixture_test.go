package controllers

import (
	"context"
	"errors"
	"testing"

	"ollachat/ollachat/services/llm"
	"ollachat/ollachat/sources/psql/dao"
	"ollachat/ollachat/sources/psql/models"
	"ollachat/ollachat/sources/psql/psqltest"
	"ollachat/ollachat/sources/storage"
)

// fakeGenerator stands in for the Ollama client.
type fakeGenerator struct {
	model     string
	available bool
	reply     string
	parts     []string
	err       error
	prompts   []string
}

func (f *fakeGenerator) DefaultModel() string { return f.model }

func (f *fakeGenerator) CheckModel(ctx context.Context, model string) bool {
	return f.available && model == f.model
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Model: req.Model, Response: f.reply, CreatedAt: "2025-01-01T00:00:00Z", Done: true}, nil
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, req llm.GenerateRequest) (<-chan string, <-chan error) {
	f.prompts = append(f.prompts, req.Prompt)
	ch := make(chan string, len(f.parts))
	errCh := make(chan error, 1)
	for _, p := range f.parts {
		ch <- p
	}
	close(ch)
	errCh <- f.err
	close(errCh)
	return ch, errCh
}

type fixture struct {
	chatDAO    *dao.ChatDAO
	messageDAO *dao.MessageDAO
	fileDAO    *dao.FileDAO
	store      *storage.DiskStore
	gen        *fakeGenerator

	chats    *ChatsController
	messages *MessagesController
	files    *FilesController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := psqltest.NewDatabase(t)
	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	f := &fixture{
		chatDAO:    dao.NewChatDAO(db.DB),
		messageDAO: dao.NewMessageDAO(db.DB),
		fileDAO:    dao.NewFileDAO(db.DB),
		store:      store,
		gen:        &fakeGenerator{model: "llama3", available: true, reply: "Hi there"},
	}
	f.chats = NewChatsController(f.chatDAO, f.messageDAO, f.fileDAO, store, "llama3")
	f.messages = NewMessagesController(f.chatDAO, f.messageDAO, f.gen)
	f.files = NewFilesController(f.fileDAO, f.chatDAO, store, 1<<20)
	return f
}

func (f *fixture) newChat(t *testing.T) *models.Chat {
	t.Helper()
	chat, err := f.chats.CreateChat(context.Background(), "New Chat", "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	return chat
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
