package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
)

// Distinct user-facing messages per device/permission error code; anything
// else degrades to the generic transcription failure.
var (
	ErrSpeechNoSpeech     = errors.New("no speech was detected, please try again")
	ErrSpeechAudioCapture = errors.New("no microphone was found or audio capture failed")
	ErrSpeechNotAllowed   = errors.New("microphone access was denied")
	ErrTranscribeFailed   = errors.New("could not transcribe audio")
)

// SpeechService captures a single spoken utterance as the session's
// destination text. Non-continuous: no partial results, no retry — the
// caller must re-trigger after a failure.
type SpeechService struct {
	transcriber ports.Transcriber
	sessions    ports.SessionStore
}

// NewSpeechService creates a new SpeechService.
func NewSpeechService(transcriber ports.Transcriber, sessions ports.SessionStore) *SpeechService {
	return &SpeechService{transcriber: transcriber, sessions: sessions}
}

// TranscribeDestination transcribes the utterance and overwrites the
// session's destination text. The destination coordinate is reset: it stays
// unresolved until the text is geocoded.
func (s *SpeechService) TranscribeDestination(ctx context.Context, sessionID string, audio []byte, contentType, language string) (*domain.Transcript, error) {
	if len(audio) == 0 {
		return nil, ErrSpeechAudioCapture
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, contentType, language)
	if err != nil {
		var speechErr *ports.SpeechError
		if errors.As(err, &speechErr) {
			switch speechErr.Code {
			case ports.SpeechNoSpeech:
				return nil, ErrSpeechNoSpeech
			case ports.SpeechAudioCapture:
				return nil, ErrSpeechAudioCapture
			case ports.SpeechNotAllowed:
				return nil, ErrSpeechNotAllowed
			}
		}
		return nil, ErrTranscribeFailed
	}
	if transcript == nil || transcript.Text == "" {
		return nil, ErrSpeechNoSpeech
	}

	session.Destination = domain.Destination{
		Kind:    domain.DestinationAddress,
		Address: transcript.Text,
	}
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return transcript, nil
}
