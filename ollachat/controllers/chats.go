package controllers

import (
	"context"
	"fmt"
	"strings"

	"ollachat/ollachat/sources/psql/dao"
	"ollachat/ollachat/sources/psql/models"
	"ollachat/ollachat/sources/storage"
	"ollachat/ollachat/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatsController struct {
	chatDAO      *dao.ChatDAO
	messageDAO   *dao.MessageDAO
	fileDAO      *dao.FileDAO
	store        storage.ObjectStore
	defaultModel string
}

func NewChatsController(chatDAO *dao.ChatDAO, messageDAO *dao.MessageDAO, fileDAO *dao.FileDAO, store storage.ObjectStore, defaultModel string) *ChatsController {
	return &ChatsController{
		chatDAO:      chatDAO,
		messageDAO:   messageDAO,
		fileDAO:      fileDAO,
		store:        store,
		defaultModel: defaultModel,
	}
}

type ChatWithMessages struct {
	Chat     *models.Chat     `json:"chat"`
	Messages []models.Message `json:"messages"`
}

func (c *ChatsController) ListChats(ctx context.Context) ([]models.Chat, error) {
	chats, err := c.chatDAO.ListChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	return chats, nil
}

func (c *ChatsController) GetChat(ctx context.Context, id uuid.UUID) (*ChatWithMessages, error) {
	chat, err := c.requireChat(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := c.messageDAO.GetMessagesByChat(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return &ChatWithMessages{Chat: chat, Messages: msgs}, nil
}

func (c *ChatsController) CreateChat(ctx context.Context, title, model string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, BadRequest("Title is required")
	}
	if model == "" {
		model = c.defaultModel
	}
	chat := &models.Chat{Title: title, ModelName: model}
	if err := c.chatDAO.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	logging.AppLogger.Info("chat created", zap.String("chat_id", chat.ID.String()))
	return chat, nil
}

func (c *ChatsController) UpdateChatTitle(ctx context.Context, id uuid.UUID, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, BadRequest("Title is required")
	}
	if _, err := c.requireChat(ctx, id); err != nil {
		return nil, err
	}
	if err := c.chatDAO.UpdateTitle(ctx, id, title); err != nil {
		return nil, fmt.Errorf("update chat: %w", err)
	}
	return c.requireChat(ctx, id)
}

// DeleteChat removes the chat, its messages and its files. Stored file
// objects are removed after the rows are gone; failures there are only logged.
func (c *ChatsController) DeleteChat(ctx context.Context, id uuid.UUID) error {
	files, err := c.fileDAO.GetFilesByChat(ctx, id)
	if err != nil {
		return fmt.Errorf("load chat files: %w", err)
	}
	msgCount, err := c.messageDAO.CountMessages(ctx, id)
	if err != nil {
		return fmt.Errorf("count chat messages: %w", err)
	}
	found, err := c.chatDAO.DeleteChat(ctx, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if !found {
		return ErrChatNotFound
	}
	for _, f := range files {
		if err := c.store.Remove(ctx, f.Filename); err != nil {
			logging.AppLogger.Warn("failed to remove stored file", zap.String("key", f.Filename), zap.Error(err))
		}
	}
	logging.AppLogger.Info("chat deleted", zap.String("chat_id", id.String()), zap.Int64("messages", msgCount), zap.Int("files", len(files)))
	return nil
}

func (c *ChatsController) requireChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat, err := c.chatDAO.GetChatByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}
