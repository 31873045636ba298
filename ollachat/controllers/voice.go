package controllers

import (
	"context"
	"errors"
	"fmt"

	"ollachat/ollachat/services/voice"
)

type VoiceController struct {
	transcriber *voice.Transcriber
}

func NewVoiceController(t *voice.Transcriber) *VoiceController {
	return &VoiceController{transcriber: t}
}

func (c *VoiceController) Transcribe(ctx context.Context, req voice.Request) (*voice.Result, error) {
	if req.AudioData == "" {
		return nil, BadRequest("Audio data is required")
	}
	res, err := c.transcriber.Transcribe(ctx, req)
	if errors.Is(err, voice.ErrInvalidInput) {
		return nil, BadRequest(fmt.Sprintf("Invalid audio data: %v", err))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFail, err)
	}
	return res, nil
}

func (c *VoiceController) Status(ctx context.Context) voice.Status {
	return c.transcriber.Status(ctx)
}
