package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type File struct {
	ID           uuid.UUID                      `json:"_id" gorm:"type:uuid;primaryKey"`
	ChatID       *uuid.UUID                     `json:"chatId,omitempty" gorm:"type:uuid;index"`
	Filename     string                         `json:"filename" gorm:"type:varchar(255);not null"`
	OriginalName string                         `json:"originalName" gorm:"type:varchar(255);not null"`
	MimeType     string                         `json:"mimeType" gorm:"type:varchar(127);not null"`
	Size         int64                          `json:"size" gorm:"not null"`
	Chunks       datatypes.JSONSlice[string]    `json:"chunks"`
	Embeddings   datatypes.JSONSlice[[]float64] `json:"-"`
	Title        string                         `json:"title,omitempty" gorm:"type:varchar(255)"`
	Description  string                         `json:"description,omitempty" gorm:"type:text"`
	Tags         datatypes.JSONSlice[string]    `json:"tags,omitempty"`
	CreatedAt    time.Time                      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time                      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (File) TableName() string {
	return "files"
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Processed reports whether the file has been split into chunks.
func (f *File) Processed() bool {
	return len(f.Chunks) > 0
}
