// Package speech adapts a hosted speech-to-text service to the Transcriber
// port. The service classifies failures with the same error codes the Web
// Speech API uses, which the adapter surfaces as ports.SpeechError so the
// session layer can map them to user-facing messages.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
)

// Transcriber implements ports.Transcriber over a REST recognition endpoint.
type Transcriber struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewTranscriber creates a speech client. baseURL is overridable for tests.
func NewTranscriber(client *http.Client, baseURL, apiKey string) *Transcriber {
	return &Transcriber{client: client, baseURL: baseURL, apiKey: apiKey}
}

type recognizeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Transcribe sends one utterance for recognition. Known provider error codes
// come back as *ports.SpeechError; anything else is a transport failure.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType, language string) (*domain.Transcript, error) {
	if len(audio) == 0 {
		return nil, &ports.SpeechError{Code: ports.SpeechAudioCapture}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"?language="+language, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("build recognize request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, &ports.SpeechError{Code: ports.SpeechNotAllowed}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognize status %d", resp.StatusCode)
	}

	var body recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode recognize response: %w", err)
	}

	switch body.Error {
	case "":
	case string(ports.SpeechNoSpeech):
		return nil, &ports.SpeechError{Code: ports.SpeechNoSpeech}
	case string(ports.SpeechAudioCapture):
		return nil, &ports.SpeechError{Code: ports.SpeechAudioCapture}
	case string(ports.SpeechNotAllowed):
		return nil, &ports.SpeechError{Code: ports.SpeechNotAllowed}
	default:
		return nil, fmt.Errorf("recognize error %q", body.Error)
	}

	return &domain.Transcript{Text: body.Text, Confidence: body.Confidence}, nil
}
