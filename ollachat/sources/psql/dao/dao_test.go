package dao_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ollachat/ollachat/sources/psql/dao"
	"ollachat/ollachat/sources/psql/models"
	"ollachat/ollachat/sources/psql/psqltest"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestMessagesOrderedAndChatTouched(t *testing.T) {
	ctx := context.Background()
	db := psqltest.NewDatabase(t)
	chats := dao.NewChatDAO(db.DB)
	msgs := dao.NewMessageDAO(db.DB)

	chat := &models.Chat{Title: "New Chat", ModelName: "llama3"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	before := chat.UpdatedAt

	base := time.Now().Add(time.Minute)
	for i, content := range []string{"first", "second", "third"} {
		m := &models.Message{
			ChatID:    chat.ID,
			Role:      models.RoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := msgs.AddMessage(ctx, m, ""); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	history, err := msgs.GetMessagesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessagesByChat: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i, want := range []string{"first", "second", "third"} {
		if history[i].Content != want {
			t.Errorf("message %d: expected %q, got %q", i, want, history[i].Content)
		}
	}

	got, err := chats.GetChatByID(ctx, chat.ID)
	if err != nil || got == nil {
		t.Fatalf("GetChatByID: %v %v", got, err)
	}
	if got.UpdatedAt.Before(before) {
		t.Errorf("expected updated_at to move forward, got %v before %v", got.UpdatedAt, before)
	}
}

func TestDeleteChatRemovesMessagesAndFiles(t *testing.T) {
	ctx := context.Background()
	db := psqltest.NewDatabase(t)
	chats := dao.NewChatDAO(db.DB)
	msgs := dao.NewMessageDAO(db.DB)
	files := dao.NewFileDAO(db.DB)

	keep := &models.Chat{Title: "keep", ModelName: "m"}
	drop := &models.Chat{Title: "drop", ModelName: "m"}
	for _, c := range []*models.Chat{keep, drop} {
		if err := chats.CreateChat(ctx, c); err != nil {
			t.Fatalf("CreateChat: %v", err)
		}
		if err := msgs.AddMessage(ctx, &models.Message{ChatID: c.ID, Role: models.RoleUser, Content: "hi"}, ""); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
		chatID := c.ID
		if err := files.CreateFile(ctx, &models.File{ChatID: &chatID, Filename: "a", OriginalName: "a.txt", MimeType: "text/plain", Size: 1}); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
	}

	found, err := chats.DeleteChat(ctx, drop.ID)
	if err != nil || !found {
		t.Fatalf("DeleteChat: found=%v err=%v", found, err)
	}

	if n, _ := msgs.CountMessages(ctx, drop.ID); n != 0 {
		t.Errorf("expected no orphan messages, got %d", n)
	}
	if fs, _ := files.GetFilesByChat(ctx, drop.ID); len(fs) != 0 {
		t.Errorf("expected no orphan files, got %d", len(fs))
	}
	if n, _ := msgs.CountMessages(ctx, keep.ID); n != 1 {
		t.Errorf("other chat lost its messages: %d", n)
	}

	found, err = chats.DeleteChat(ctx, drop.ID)
	if err != nil || found {
		t.Errorf("second delete: expected found=false, got %v (err %v)", found, err)
	}
}

func TestListChatsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	db := psqltest.NewDatabase(t)
	chats := dao.NewChatDAO(db.DB)

	old := &models.Chat{Title: "old", ModelName: "m"}
	recent := &models.Chat{Title: "recent", ModelName: "m"}
	for _, c := range []*models.Chat{old, recent} {
		if err := chats.CreateChat(ctx, c); err != nil {
			t.Fatalf("CreateChat: %v", err)
		}
	}
	time.Sleep(5 * time.Millisecond)
	if err := chats.UpdateTitle(ctx, old.ID, "old but renamed"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}

	list, err := chats.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(list) != 2 || list[0].ID != old.ID {
		t.Errorf("expected renamed chat first, got %+v", list)
	}
}

func TestFileChunksRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := psqltest.NewDatabase(t)
	files := dao.NewFileDAO(db.DB)

	f := &models.File{Filename: "k", OriginalName: "notes.txt", MimeType: "text/plain", Size: 10}
	if err := files.CreateFile(ctx, f); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := files.SaveChunks(ctx, f.ID, []string{"a.", "b."}, [][]float64{{0.1}, {0.2}}); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}
	updates := map[string]interface{}{
		"title": "Notes",
		"tags":  datatypes.JSONSlice[string]{"x", "y"},
	}
	if err := files.UpdateFile(ctx, f.ID, updates); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	got, err := files.GetFileByID(ctx, f.ID)
	if err != nil || got == nil {
		t.Fatalf("GetFileByID: %v %v", got, err)
	}
	if !got.Processed() || len(got.Chunks) != 2 || len(got.Embeddings) != 2 {
		t.Errorf("chunks not persisted: %+v", got)
	}
	if got.Title != "Notes" || len(got.Tags) != 2 {
		t.Errorf("metadata not persisted: %+v", got)
	}
}

func TestAddMessageTitlesFirstMessageOnly(t *testing.T) {
	ctx := context.Background()
	db := psqltest.NewDatabase(t)
	chats := dao.NewChatDAO(db.DB)
	msgs := dao.NewMessageDAO(db.DB)

	chat := &models.Chat{Title: "New Chat", ModelName: "m"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	for _, title := range []string{"first", "second"} {
		m := &models.Message{ChatID: chat.ID, Role: models.RoleUser, Content: title}
		if err := msgs.AddMessage(ctx, m, title); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}
	got, _ := chats.GetChatByID(ctx, chat.ID)
	if got.Title != "first" {
		t.Errorf("title = %q, want %q", got.Title, "first")
	}
}

func TestAddMessageRollsBackWhenChatUpdateFails(t *testing.T) {
	ctx := context.Background()
	db := psqltest.NewDatabase(t)
	chats := dao.NewChatDAO(db.DB)
	msgs := dao.NewMessageDAO(db.DB)

	chat := &models.Chat{Title: "New Chat", ModelName: "m"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	err := db.DB.Callback().Update().Before("gorm:update").Register("test:fail_chat_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "chats" {
			tx.AddError(errors.New("chat update failed"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	m := &models.Message{ChatID: chat.ID, Role: models.RoleUser, Content: "hello"}
	if err := msgs.AddMessage(ctx, m, "hello"); err == nil {
		t.Fatal("expected AddMessage to fail")
	}
	if n, _ := msgs.CountMessages(ctx, chat.ID); n != 0 {
		t.Errorf("message kept after failed transaction: %d", n)
	}
}
