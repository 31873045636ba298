package dao

import (
	"context"
	"errors"
	"time"

	"ollachat/ollachat/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageDAO struct {
	DB *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{DB: db}
}

// AddMessage stores msg and bumps the owning chat's updated_at. When
// firstTitle is set and msg is the chat's first message, the chat is renamed
// to it in the same transaction.
func (dao *MessageDAO) AddMessage(ctx context.Context, msg *models.Message, firstTitle string) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior int64
		if firstTitle != "" {
			if err := tx.Model(&models.Message{}).Where("chat_id = ?", msg.ChatID).Count(&prior).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"updated_at": time.Now()}
		if firstTitle != "" && prior == 0 {
			updates["title"] = firstTitle
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", msg.ChatID).
			Updates(updates).Error
	})
}

func (dao *MessageDAO) GetMessageByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := dao.DB.WithContext(ctx).First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessagesByChat returns the chat history oldest first.
func (dao *MessageDAO) GetMessagesByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := dao.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		Order("seq asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (dao *MessageDAO) CountMessages(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var n int64
	err := dao.DB.WithContext(ctx).Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&n).Error
	return n, err
}
