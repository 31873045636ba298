package functions

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"ollachat/ollachat/utils/logging"

	"go.uber.org/zap"
)

// FileSource gives the file functions access to a chat's uploads.
type FileSource interface {
	ListFiles(ctx context.Context, chatID string) ([]FileEntry, error)
	SearchFiles(ctx context.Context, chatID, query string) ([]FileMatch, error)
}

type FileEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Processed  bool      `json:"processed"`
}

type FileMatch struct {
	FileID    string   `json:"file_id"`
	FileName  string   `json:"file_name"`
	Matches   []string `json:"matches"`
	Relevance float64  `json:"relevance"`
}

var weatherConditions = []string{"Sunny", "Cloudy", "Rainy", "Snowy"}

// NewDefaultRegistry binds the built-in handlers to the schemas of the
// catalogue. Catalogue entries without a handler are skipped.
func NewDefaultRegistry(schemas []Schema, files FileSource) *Registry {
	handlers := map[string]Handler{
		"get_weather":        getWeather,
		"send_email":         sendEmail,
		"add_calendar_event": addCalendarEvent,
		"list_files":         listFiles(files),
		"search_files":       searchFiles(files),
	}
	r := NewRegistry()
	for _, s := range schemas {
		h, ok := handlers[s.Name]
		if !ok {
			logging.AppLogger.Warn("no handler for catalogued function", zap.String("function", s.Name))
			continue
		}
		r.Register(s, h)
	}
	return r
}

func getWeather(ctx context.Context, args map[string]any) (any, error) {
	return map[string]any{
		"location":    stringArg(args, "location"),
		"temperature": rand.IntN(30) + 10,
		"condition":   weatherConditions[rand.IntN(len(weatherConditions))],
		"humidity":    rand.IntN(50) + 30,
		"wind_speed":  rand.IntN(20) + 5,
	}, nil
}

func sendEmail(ctx context.Context, args map[string]any) (any, error) {
	to := stringArg(args, "to")
	subject := stringArg(args, "subject")
	logging.AppLogger.Info("mock email sent", zap.String("to", to), zap.String("subject", subject))
	return map[string]any{
		"message": "Email sent successfully",
		"to":      to,
		"subject": subject,
	}, nil
}

func addCalendarEvent(ctx context.Context, args map[string]any) (any, error) {
	now := time.Now()
	event := map[string]any{
		"id":          fmt.Sprintf("event_%d", now.UnixMilli()),
		"title":       stringArg(args, "title"),
		"start_time":  stringArg(args, "start_time"),
		"end_time":    stringArg(args, "end_time"),
		"description": stringArg(args, "description"),
		"created_at":  now.UTC().Format(time.RFC3339),
	}
	logging.AppLogger.Info("mock calendar event created", zap.Any("event", event))
	return event, nil
}

var errNoFileSource = errors.New("file functions are not configured")

func listFiles(files FileSource) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		if files == nil {
			return nil, errNoFileSource
		}
		entries, err := files.ListFiles(ctx, stringArg(args, "chat_id"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"files": entries}, nil
	}
}

func searchFiles(files FileSource) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		if files == nil {
			return nil, errNoFileSource
		}
		query := stringArg(args, "query")
		matches, err := files.SearchFiles(ctx, stringArg(args, "chat_id"), query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": matches, "query": query}, nil
	}
}
