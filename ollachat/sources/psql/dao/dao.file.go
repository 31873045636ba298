package dao

import (
	"context"
	"errors"

	"ollachat/ollachat/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FileDAO struct {
	DB *gorm.DB
}

func NewFileDAO(db *gorm.DB) *FileDAO {
	return &FileDAO{DB: db}
}

func (dao *FileDAO) CreateFile(ctx context.Context, file *models.File) error {
	return dao.DB.WithContext(ctx).Create(file).Error
}

func (dao *FileDAO) GetFileByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	err := dao.DB.WithContext(ctx).First(&file, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetFilesByChat returns the chat's files, newest first.
func (dao *FileDAO) GetFilesByChat(ctx context.Context, chatID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := dao.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at desc").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (dao *FileDAO) SaveChunks(ctx context.Context, id uuid.UUID, chunks []string, embeddings [][]float64) error {
	return dao.DB.WithContext(ctx).
		Model(&models.File{ID: id}).
		Updates(map[string]interface{}{
			"chunks":     datatypes.JSONSlice[string](chunks),
			"embeddings": datatypes.JSONSlice[[]float64](embeddings),
		}).Error
}

// UpdateFile applies column updates; tags must already be a datatypes.JSONSlice.
func (dao *FileDAO) UpdateFile(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return dao.DB.WithContext(ctx).Model(&models.File{ID: id}).Updates(updates).Error
}

func (dao *FileDAO) DeleteFile(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.File{}).Error
}
