package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ollachat/ollachat/sources/psql/dao"
	"ollachat/ollachat/sources/psql/models"
	"ollachat/ollachat/sources/storage"
	"ollachat/ollachat/utils/logging"
	"ollachat/ollachat/utils/textextract"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	chunkSize          = 1000
	embeddingDims      = 512
	defaultFileTopK    = 3
	defaultCrossTopK   = 5
	unsupportedFileMsg = "Only PDF, text, HTML files and images are allowed"
)

type FilesController struct {
	fileDAO  *dao.FileDAO
	chatDAO  *dao.ChatDAO
	store    storage.ObjectStore
	maxBytes int64
}

func NewFilesController(fileDAO *dao.FileDAO, chatDAO *dao.ChatDAO, store storage.ObjectStore, maxBytes int64) *FilesController {
	return &FilesController{fileDAO: fileDAO, chatDAO: chatDAO, store: store, maxBytes: maxBytes}
}

type UploadInput struct {
	ChatID       string
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
}

type FileInfo struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

type FileSummary struct {
	models.File
	HasChunks bool `json:"hasChunks"`
}

type ProcessResult struct {
	Success    bool     `json:"success"`
	Chunks     []string `json:"chunks"`
	ChunkCount int      `json:"chunkCount"`
}

type FileStats struct {
	TotalFiles     int            `json:"totalFiles"`
	TotalSize      int64          `json:"totalSize"`
	ProcessedFiles int            `json:"processedFiles"`
	FileTypes      map[string]int `json:"fileTypes"`
}

type FileSearchResult struct {
	FileID    string   `json:"fileId"`
	FileName  string   `json:"fileName"`
	Chunks    []string `json:"chunks"`
	Relevance float64  `json:"relevance"`
}

type MetadataUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

type FileContent struct {
	Content  string          `json:"content"`
	Chunks   []string        `json:"chunks"`
	Metadata FileContentMeta `json:"metadata"`
}

type FileContentMeta struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Processed  bool      `json:"processed"`
}

// NormalizeMimeType drops parameters and falls back to the file extension
// when the client sent nothing useful.
func NormalizeMimeType(contentType, name string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
			mt, _, _ = mime.ParseMediaType(byExt)
		}
	}
	return strings.ToLower(mt)
}

// AllowedMimeType reports whether uploads of this type are accepted.
func AllowedMimeType(mt string) bool {
	switch {
	case mt == "application/pdf":
		return true
	case strings.HasPrefix(mt, "image/"):
		return true
	case mt == "text/plain", mt == "text/markdown", mt == "text/html":
		return true
	}
	return false
}

func (c *FilesController) Upload(ctx context.Context, in UploadInput) (*FileInfo, error) {
	defer logging.LogDuration(ctx, "files_upload")()

	if in.Body == nil {
		return nil, BadRequest("No file uploaded")
	}
	if c.maxBytes > 0 && in.Size > c.maxBytes {
		return nil, ErrFileTooLarge
	}
	mt := NormalizeMimeType(in.MimeType, in.OriginalName)
	if !AllowedMimeType(mt) {
		return nil, &userError{kind: ErrUnsupportedFile, msg: unsupportedFileMsg}
	}

	var chatID *uuid.UUID
	if in.ChatID != "" {
		id, err := parseID(in.ChatID, "Chat ID")
		if err != nil {
			return nil, err
		}
		chat, err := c.chatDAO.GetChatByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load chat: %w", err)
		}
		if chat == nil {
			return nil, ErrChatNotFound
		}
		chatID = &id
	}

	key := fmt.Sprintf("file-%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], strings.ToLower(filepath.Ext(in.OriginalName)))
	if err := c.store.Put(ctx, key, in.Body, in.Size, mt); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	file := &models.File{
		ChatID:       chatID,
		Filename:     key,
		OriginalName: in.OriginalName,
		MimeType:     mt,
		Size:         in.Size,
	}
	if err := c.fileDAO.CreateFile(ctx, file); err != nil {
		if rmErr := c.store.Remove(ctx, key); rmErr != nil {
			logging.AppLogger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("save file: %w", err)
	}
	logging.AppLogger.Info("file uploaded",
		zap.String("file_id", file.ID.String()),
		zap.String("mime", mt),
		zap.Int64("size", in.Size),
	)
	return &FileInfo{
		ID:           file.ID.String(),
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		MimeType:     file.MimeType,
		Size:         file.Size,
		CreatedAt:    file.CreatedAt,
	}, nil
}

// Process extracts text, splits it into chunks and attaches a placeholder
// embedding to each chunk.
func (c *FilesController) Process(ctx context.Context, id uuid.UUID) (*ProcessResult, error) {
	defer logging.LogDuration(ctx, "files_process")()

	file, err := c.requireFile(ctx, id)
	if err != nil {
		return nil, err
	}
	var data []byte
	if strings.HasPrefix(file.MimeType, "text/") {
		data, err = c.store.Get(ctx, file.Filename)
		if err != nil {
			return nil, fmt.Errorf("read stored file: %w", err)
		}
	}
	text, err := textextract.Extract(file.MimeType, file.OriginalName, data)
	if errors.Is(err, textextract.ErrUnsupported) {
		return nil, &userError{kind: ErrUnsupportedFile, msg: fmt.Sprintf("Processing is not supported for %s files", file.MimeType)}
	}
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	chunks := textextract.Chunk(text, chunkSize)
	if chunks == nil {
		chunks = []string{}
	}
	embeddings := make([][]float64, len(chunks))
	for i := range chunks {
		embeddings[i] = mockEmbedding()
	}
	if err := c.fileDAO.SaveChunks(ctx, id, chunks, embeddings); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}
	return &ProcessResult{Success: true, Chunks: chunks, ChunkCount: len(chunks)}, nil
}

// Search returns up to topK chunks of a processed file. Similarity is not
// computed; the chunks are picked at random.
func (c *FilesController) Search(ctx context.Context, id uuid.UUID, query string, topK int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, BadRequest("Query is required")
	}
	if topK <= 0 {
		topK = defaultFileTopK
	}
	file, err := c.fileDAO.GetFileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}
	if file == nil || !file.Processed() {
		return nil, ErrFileNotProcessed
	}
	return pickChunks(file.Chunks, topK), nil
}

func (c *FilesController) ListFiles(ctx context.Context, chatID uuid.UUID) ([]FileSummary, error) {
	files, err := c.fileDAO.GetFilesByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	out := make([]FileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, FileSummary{File: f, HasChunks: f.Processed()})
	}
	return out, nil
}

func (c *FilesController) DeleteFile(ctx context.Context, id uuid.UUID) error {
	file, err := c.requireFile(ctx, id)
	if err != nil {
		return err
	}
	if err := c.fileDAO.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := c.store.Remove(ctx, file.Filename); err != nil {
		logging.AppLogger.Warn("failed to remove stored file", zap.String("key", file.Filename), zap.Error(err))
	}
	return nil
}

func (c *FilesController) Stats(ctx context.Context, chatID uuid.UUID) (*FileStats, error) {
	files, err := c.fileDAO.GetFilesByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	stats := &FileStats{TotalFiles: len(files), FileTypes: map[string]int{}}
	for _, f := range files {
		stats.TotalSize += f.Size
		if f.Processed() {
			stats.ProcessedFiles++
		}
		stats.FileTypes[strings.ToLower(filepath.Ext(f.OriginalName))]++
	}
	return stats, nil
}

// SearchAll searches every processed file of the chat and returns the topK
// files ordered by (random) relevance.
func (c *FilesController) SearchAll(ctx context.Context, chatID uuid.UUID, query string, topK int) ([]FileSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, BadRequest("Query is required")
	}
	if topK <= 0 {
		topK = defaultCrossTopK
	}
	files, err := c.fileDAO.GetFilesByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	results := []FileSearchResult{}
	for _, f := range files {
		if !f.Processed() {
			continue
		}
		results = append(results, FileSearchResult{
			FileID:    f.ID.String(),
			FileName:  f.OriginalName,
			Chunks:    pickChunks(f.Chunks, topK),
			Relevance: rand.Float64(),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (c *FilesController) UpdateMetadata(ctx context.Context, id uuid.UUID, upd MetadataUpdate) (*models.File, error) {
	if _, err := c.requireFile(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if upd.Title != nil {
		updates["title"] = *upd.Title
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](upd.Tags)
	}
	if len(updates) > 0 {
		if err := c.fileDAO.UpdateFile(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update file: %w", err)
		}
	}
	return c.requireFile(ctx, id)
}

func (c *FilesController) Content(ctx context.Context, id uuid.UUID) (*FileContent, error) {
	file, err := c.requireFile(ctx, id)
	if err != nil {
		return nil, err
	}
	chunks := []string(file.Chunks)
	if chunks == nil {
		chunks = []string{}
	}
	return &FileContent{
		Content: strings.Join(chunks, "\n\n"),
		Chunks:  chunks,
		Metadata: FileContentMeta{
			ID:         file.ID.String(),
			Name:       file.OriginalName,
			Size:       file.Size,
			UploadedAt: file.CreatedAt,
			Processed:  file.Processed(),
		},
	}, nil
}

func (c *FilesController) requireFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	file, err := c.fileDAO.GetFileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}
	if file == nil {
		return nil, ErrFileNotFound
	}
	return file, nil
}

func pickChunks(chunks []string, k int) []string {
	shuffled := append([]string(nil), chunks...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > k {
		shuffled = shuffled[:k]
	}
	return shuffled
}

func mockEmbedding() []float64 {
	v := make([]float64, embeddingDims)
	for i := range v {
		v[i] = rand.Float64()
	}
	return v
}
