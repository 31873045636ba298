package controllers

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrChatNotFound      = errors.New("Chat not found")
	ErrMessageNotFound   = errors.New("Message not found")
	ErrFileNotFound      = errors.New("File not found")
	ErrFileNotProcessed  = errors.New("File not found or not processed")
	ErrUnsupportedFile   = errors.New("Unsupported file type")
	ErrFileTooLarge      = errors.New("File too large")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrGenerationFailed  = errors.New("Failed to generate response from Ollama")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrTranscriptionFail = errors.New("Failed to transcribe audio")
)

// BadRequest wraps ErrBadRequest so the message reaches the client verbatim.
func BadRequest(msg string) error {
	return &userError{kind: ErrBadRequest, msg: msg}
}

func modelUnavailable(model string) error {
	return &userError{
		kind: ErrModelUnavailable,
		msg:  fmt.Sprintf("Model %s is not available. Please make sure Ollama is running and the model is installed.", model),
	}
}

type userError struct {
	kind error
	msg  string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.kind }
