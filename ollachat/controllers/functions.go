package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ollachat/ollachat/services/functions"

	"github.com/google/uuid"
)

type FunctionsController struct {
	registry *functions.Registry
}

func NewFunctionsController(registry *functions.Registry) *FunctionsController {
	return &FunctionsController{registry: registry}
}

type ParsedCall struct {
	Function  string           `json:"function"`
	Arguments map[string]any   `json:"arguments"`
	Result    functions.Result `json:"result"`
}

type ParseResponse struct {
	Success       bool             `json:"success"`
	FunctionCalls []functions.Call `json:"functionCalls"`
	Results       []ParsedCall     `json:"results"`
}

func (c *FunctionsController) Schemas() []functions.Schema {
	return c.registry.Schemas()
}

// Execute runs one call. An unknown name is ErrFunctionNotFound; handler
// failures come back inside the Result.
func (c *FunctionsController) Execute(ctx context.Context, call functions.Call) (functions.Result, error) {
	if strings.TrimSpace(call.Name) == "" {
		return functions.Result{}, BadRequest("Function name is required")
	}
	if !c.registry.Has(call.Name) {
		return functions.Result{}, &userError{kind: ErrFunctionNotFound, msg: fmt.Sprintf("Function %s not found", call.Name)}
	}
	return c.registry.Execute(ctx, call), nil
}

// ParseAndExecute detects calls in text and runs each of them in order.
func (c *FunctionsController) ParseAndExecute(ctx context.Context, text, chatID string) (*ParseResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, BadRequest("Text is required")
	}
	calls := c.registry.Detect(text, chatID, time.Now())
	results := make([]ParsedCall, 0, len(calls))
	for _, call := range calls {
		results = append(results, ParsedCall{
			Function:  call.Name,
			Arguments: call.Arguments,
			Result:    c.registry.Execute(ctx, call),
		})
	}
	return &ParseResponse{Success: true, FunctionCalls: calls, Results: results}, nil
}

// ChatFiles lets the file functions read a chat's uploads.
type ChatFiles struct {
	files *FilesController
}

func NewChatFiles(files *FilesController) *ChatFiles {
	return &ChatFiles{files: files}
}

func (a *ChatFiles) ListFiles(ctx context.Context, chatID string) ([]functions.FileEntry, error) {
	id, err := a.chatID(chatID)
	if err != nil {
		return nil, err
	}
	files, err := a.files.ListFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]functions.FileEntry, 0, len(files))
	for _, f := range files {
		out = append(out, functions.FileEntry{
			ID:         f.ID.String(),
			Name:       f.OriginalName,
			Size:       f.Size,
			UploadedAt: f.CreatedAt,
			Processed:  f.HasChunks,
		})
	}
	return out, nil
}

func (a *ChatFiles) SearchFiles(ctx context.Context, chatID, query string) ([]functions.FileMatch, error) {
	id, err := a.chatID(chatID)
	if err != nil {
		return nil, err
	}
	results, err := a.files.SearchAll(ctx, id, query, defaultCrossTopK)
	if err != nil {
		return nil, err
	}
	out := make([]functions.FileMatch, 0, len(results))
	for _, r := range results {
		out = append(out, functions.FileMatch{
			FileID:    r.FileID,
			FileName:  r.FileName,
			Matches:   r.Chunks,
			Relevance: r.Relevance,
		})
	}
	return out, nil
}

func (a *ChatFiles) chatID(raw string) (uuid.UUID, error) {
	if raw == "" || raw == functions.CurrentChat {
		return uuid.Nil, fmt.Errorf("a chat id is required, pass chatId with the request")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid chat id %q", raw)
	}
	return id, nil
}
