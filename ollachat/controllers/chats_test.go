package controllers

import (
	"bytes"
	"context"
	"testing"

	"ollachat/ollachat/services/llm"

	"github.com/google/uuid"
)

func TestCreateChatDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.chats.CreateChat(ctx, "   ", ""); err == nil || err.Error() != "Title is required" {
		t.Fatalf("expected title error, got %v", err)
	}
	chat, err := f.chats.CreateChat(ctx, "Trip plans", "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.ModelName != "llama3" || chat.ID == uuid.Nil {
		t.Errorf("unexpected chat %+v", chat)
	}

	list, err := f.chats.ListChats(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListChats: %v %v", list, err)
	}
}

func TestListChatsEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	list, err := f.chats.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty slice, got %#v", list)
	}
}

func TestUpdateChatTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)

	got, err := f.chats.UpdateChatTitle(ctx, chat.ID, "Renamed")
	if err != nil {
		t.Fatalf("UpdateChatTitle: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("title = %q", got.Title)
	}
	_, err = f.chats.UpdateChatTitle(ctx, uuid.New(), "x")
	assertKind(t, err, ErrChatNotFound)
}

func TestDeleteChatCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t)

	if _, err := f.messages.SendMessage(ctx, SendMessageRequest{
		ChatID:   chat.ID.String(),
		Messages: []llm.Turn{{Role: "user", Content: "hello"}},
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	body := []byte("some notes")
	info, err := f.files.Upload(ctx, UploadInput{
		ChatID:       chat.ID.String(),
		OriginalName: "notes.txt",
		MimeType:     "text/plain",
		Size:         int64(len(body)),
		Body:         bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := f.chats.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	_, err = f.chats.GetChat(ctx, chat.ID)
	assertKind(t, err, ErrChatNotFound)
	if n, _ := f.messageDAO.CountMessages(ctx, chat.ID); n != 0 {
		t.Errorf("expected messages to be deleted, %d left", n)
	}
	if _, err := f.store.Get(ctx, info.Filename); err == nil {
		t.Error("expected stored object to be removed")
	}

	err = f.chats.DeleteChat(ctx, chat.ID)
	assertKind(t, err, ErrChatNotFound)
}
