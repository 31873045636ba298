package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ollachat/ollachat/services/llm"
	"ollachat/ollachat/sources/psql/dao"
	"ollachat/ollachat/sources/psql/models"
	"ollachat/ollachat/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const titleLimit = 50

// Generator is the slice of the Ollama client the message flow needs.
type Generator interface {
	DefaultModel() string
	CheckModel(ctx context.Context, model string) bool
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
	GenerateStream(ctx context.Context, req llm.GenerateRequest) (<-chan string, <-chan error)
}

type MessagesController struct {
	chatDAO    *dao.ChatDAO
	messageDAO *dao.MessageDAO
	llm        Generator
}

func NewMessagesController(chatDAO *dao.ChatDAO, messageDAO *dao.MessageDAO, gen Generator) *MessagesController {
	return &MessagesController{chatDAO: chatDAO, messageDAO: messageDAO, llm: gen}
}

type ChatRequest struct {
	Messages []llm.Turn   `json:"messages"`
	Model    string       `json:"model"`
	ChatID   string       `json:"chatId"`
	Options  *llm.Options `json:"options,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Done      bool   `json:"done"`
}

type SendMessageRequest struct {
	Messages []llm.Turn   `json:"messages"`
	Model    string       `json:"model"`
	ChatID   string       `json:"chatId"`
	Options  *llm.Options `json:"options,omitempty"`
}

type SendMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
}

type GenerateRequest struct {
	MessageID string       `json:"messageId"`
	ChatID    string       `json:"chatId"`
	Model     string       `json:"model"`
	Options   *llm.Options `json:"options,omitempty"`
}

type GenerateResponse struct {
	ChatResponse
	MessageID string `json:"messageId"`
}

type StatusResponse struct {
	Status          string `json:"status"`
	OllamaAvailable bool   `json:"ollamaAvailable"`
	Model           string `json:"model"`
}

// DeriveTitle turns the first user message into a chat title.
func DeriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleLimit {
		return content
	}
	return string([]rune(content)[:titleLimit]) + "..."
}

// messages is nil when the field was absent from the request body.
func validateMessages(msgs []llm.Turn) error {
	if msgs == nil {
		return BadRequest("Messages array is required")
	}
	if len(msgs) == 0 {
		return BadRequest("At least one message is required")
	}
	return nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, BadRequest(fmt.Sprintf("Invalid %s", what))
	}
	return id, nil
}

func (c *MessagesController) model(m string) string {
	if m == "" {
		return c.llm.DefaultModel()
	}
	return m
}

func (c *MessagesController) requireModel(ctx context.Context, model string) error {
	if !c.llm.CheckModel(ctx, model) {
		return modelUnavailable(model)
	}
	return nil
}

func (c *MessagesController) requireChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat, err := c.chatDAO.GetChatByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

// SendMessage validates the request, stores the last message and names the
// chat after it when it is the chat's first message.
func (c *MessagesController) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	defer logging.LogDuration(ctx, "messages_send")()

	if err := validateMessages(req.Messages); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ChatID) == "" {
		return nil, BadRequest("Chat ID is required")
	}
	chatID, err := parseID(req.ChatID, "Chat ID")
	if err != nil {
		return nil, err
	}
	if _, err := c.requireChat(ctx, chatID); err != nil {
		return nil, err
	}
	model := c.model(req.Model)
	if err := c.requireModel(ctx, model); err != nil {
		return nil, err
	}

	last := req.Messages[len(req.Messages)-1]
	msg, err := c.appendMessage(ctx, chatID, last)
	if err != nil {
		return nil, err
	}
	return &SendMessageResponse{Success: true, MessageID: msg.ID.String(), ChatID: chatID.String()}, nil
}

// GenerateResponse runs the model over the whole chat history and stores the
// reply. Nothing is stored when the model is missing or generation fails.
func (c *MessagesController) GenerateResponse(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	defer logging.LogDuration(ctx, "messages_generate")()

	if strings.TrimSpace(req.MessageID) == "" || strings.TrimSpace(req.ChatID) == "" {
		return nil, BadRequest("Message ID and Chat ID are required")
	}
	chatID, err := parseID(req.ChatID, "Chat ID")
	if err != nil {
		return nil, err
	}
	messageID, err := parseID(req.MessageID, "Message ID")
	if err != nil {
		return nil, err
	}
	if _, err := c.requireChat(ctx, chatID); err != nil {
		return nil, err
	}
	msg, err := c.messageDAO.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg == nil || msg.ChatID != chatID {
		return nil, ErrMessageNotFound
	}
	model := c.model(req.Model)
	if err := c.requireModel(ctx, model); err != nil {
		return nil, err
	}

	history, err := c.history(ctx, chatID)
	if err != nil {
		return nil, err
	}
	out, err := c.generate(ctx, model, history, req.Options)
	if err != nil {
		return nil, err
	}
	if _, err := c.appendMessage(ctx, chatID, llm.Turn{Role: models.RoleAssistant, Content: out.Response}); err != nil {
		return nil, err
	}
	return &GenerateResponse{ChatResponse: *out, MessageID: messageID.String()}, nil
}

// Chat is the one-shot flow: generate from the supplied messages and, when a
// chat id is given, store the last message and the reply.
func (c *MessagesController) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	defer logging.LogDuration(ctx, "messages_chat")()

	if err := validateMessages(req.Messages); err != nil {
		return nil, err
	}
	var chatID uuid.UUID
	if req.ChatID != "" {
		id, err := parseID(req.ChatID, "Chat ID")
		if err != nil {
			return nil, err
		}
		if _, err := c.requireChat(ctx, id); err != nil {
			return nil, err
		}
		chatID = id
	}
	model := c.model(req.Model)
	if err := c.requireModel(ctx, model); err != nil {
		return nil, err
	}

	out, err := c.generate(ctx, model, req.Messages, req.Options)
	if err != nil {
		return nil, err
	}
	if chatID != uuid.Nil {
		if _, err := c.appendMessage(ctx, chatID, req.Messages[len(req.Messages)-1]); err != nil {
			return nil, err
		}
		if _, err := c.appendMessage(ctx, chatID, llm.Turn{Role: models.RoleAssistant, Content: out.Response}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StreamEvent is one frame of a streamed generation.
type StreamEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type StreamRequest struct {
	ChatID  string       `json:"chatId"`
	Model   string       `json:"model"`
	Options *llm.Options `json:"options,omitempty"`
}

// StreamResponse generates a reply for the chat history and calls emit for
// every fragment. The assembled reply is stored once the stream completes.
func (c *MessagesController) StreamResponse(ctx context.Context, req StreamRequest, emit func(StreamEvent) error) (*models.Message, error) {
	defer logging.LogDuration(ctx, "messages_stream")()

	if strings.TrimSpace(req.ChatID) == "" {
		return nil, BadRequest("Chat ID is required")
	}
	chatID, err := parseID(req.ChatID, "Chat ID")
	if err != nil {
		return nil, err
	}
	if _, err := c.requireChat(ctx, chatID); err != nil {
		return nil, err
	}
	model := c.model(req.Model)
	if err := c.requireModel(ctx, model); err != nil {
		return nil, err
	}
	history, err := c.history(ctx, chatID)
	if err != nil {
		return nil, err
	}

	ch, errCh := c.llm.GenerateStream(ctx, llm.GenerateRequest{
		Model:   model,
		Prompt:  llm.FormatPrompt(history),
		Options: req.Options,
	})
	var sb strings.Builder
	for part := range ch {
		sb.WriteString(part)
		if err := emit(StreamEvent{Type: "chunk", Content: part}); err != nil {
			return nil, err
		}
	}
	if err := <-errCh; err != nil {
		logging.ErrorLogger.Error("stream generation failed", zap.String("chat_id", chatID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	// the caller may be gone by now, the reply is still worth keeping
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return c.appendMessage(saveCtx, chatID, llm.Turn{Role: models.RoleAssistant, Content: sb.String()})
}

func (c *MessagesController) Status(ctx context.Context) StatusResponse {
	model := c.llm.DefaultModel()
	return StatusResponse{
		Status:          "ok",
		OllamaAvailable: c.llm.CheckModel(ctx, model),
		Model:           model,
	}
}

func (c *MessagesController) history(ctx context.Context, chatID uuid.UUID) ([]llm.Turn, error) {
	msgs, err := c.messageDAO.GetMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

func (c *MessagesController) generate(ctx context.Context, model string, turns []llm.Turn, opts *llm.Options) (*ChatResponse, error) {
	resp, err := c.llm.Generate(ctx, llm.GenerateRequest{
		Model:   model,
		Prompt:  llm.FormatPrompt(turns),
		Options: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return &ChatResponse{
		Response:  resp.Response,
		Model:     resp.Model,
		CreatedAt: resp.CreatedAt,
		Done:      resp.Done,
	}, nil
}

// appendMessage stores one turn. A user turn that opens the chat also
// retitles it, atomically with the insert.
func (c *MessagesController) appendMessage(ctx context.Context, chatID uuid.UUID, turn llm.Turn) (*models.Message, error) {
	role := turn.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, BadRequest(fmt.Sprintf("Invalid message role %q", role))
	}
	title := ""
	if role == models.RoleUser && strings.TrimSpace(turn.Content) != "" {
		title = DeriveTitle(turn.Content)
	}
	msg := &models.Message{ChatID: chatID, Role: role, Content: turn.Content}
	if err := c.messageDAO.AddMessage(ctx, msg, title); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}
