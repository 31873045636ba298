package dao

import (
	"context"
	"errors"
	"time"

	"ollachat/ollachat/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

func (dao *ChatDAO) CreateChat(ctx context.Context, chat *models.Chat) error {
	return dao.DB.WithContext(ctx).Create(chat).Error
}

func (dao *ChatDAO) GetChatByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := dao.DB.WithContext(ctx).First(&chat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChats returns every chat, most recently active first.
func (dao *ChatDAO) ListChats(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	err := dao.DB.WithContext(ctx).Order("updated_at desc").Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (dao *ChatDAO) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	return dao.DB.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now()}).Error
}

// DeleteChat removes the chat together with its messages and files in one
// transaction. It reports false when no chat had that id.
func (dao *ChatDAO) DeleteChat(ctx context.Context, id uuid.UUID) (bool, error) {
	found := false
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", id).Delete(&models.File{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Chat{})
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	return found, err
}
