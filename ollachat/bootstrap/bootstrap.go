// Package bootstrap wires configuration, storage and services into the
// controllers shared by the HTTP server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"ollachat/ollachat/config"
	"ollachat/ollachat/controllers"
	"ollachat/ollachat/routes"
	"ollachat/ollachat/services/functions"
	"ollachat/ollachat/services/llm"
	"ollachat/ollachat/services/voice"
	"ollachat/ollachat/sources/psql"
	"ollachat/ollachat/sources/psql/dao"
	"ollachat/ollachat/sources/storage"
)

type App struct {
	DB          *psql.Database
	Controllers routes.Controllers
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	store, err := storage.New(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}
	schemas, err := functions.LoadCatalogue(cfg.FunctionsFile)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &App{DB: db, Controllers: Wire(cfg, db, store, schemas)}, nil
}

// Wire builds every controller from already opened dependencies.
func Wire(cfg config.Config, db *psql.Database, store storage.ObjectStore, schemas []functions.Schema) routes.Controllers {
	chatDAO := dao.NewChatDAO(db.DB)
	messageDAO := dao.NewMessageDAO(db.DB)
	fileDAO := dao.NewFileDAO(db.DB)

	ollama := llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaDefaultModel)
	transcriber := voice.NewTranscriber(cfg.FFmpegPath, cfg.WhisperPath, cfg.WhisperModelPath, cfg.TempDir)

	filesCtrl := controllers.NewFilesController(fileDAO, chatDAO, store, cfg.MaxUploadBytes)
	registry := functions.NewDefaultRegistry(schemas, controllers.NewChatFiles(filesCtrl))

	return routes.Controllers{
		Chats:     controllers.NewChatsController(chatDAO, messageDAO, fileDAO, store, cfg.OllamaDefaultModel),
		Messages:  controllers.NewMessagesController(chatDAO, messageDAO, ollama),
		Files:     filesCtrl,
		Voice:     controllers.NewVoiceController(transcriber),
		Functions: controllers.NewFunctionsController(registry),
		Health:    controllers.NewHealthController(db, cfg.Env, cfg.Port),
	}
}

func (a *App) Close() {
	a.DB.Close()
}
