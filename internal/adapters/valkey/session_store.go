package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

const sessionKeyPrefix = "session:"

// SessionStore implements ports.SessionStore on Valkey. Sessions are JSON
// blobs with a sliding TTL: every save resets the expiry, so a session lives
// as long as the page keeps interacting with it.
//
// Saves are whole-session last-write-wins. Mutations are read-modify-write,
// so two simultaneous writers on the same session id can lose an update
// (e.g. one of two concurrent marker appends). A session belongs to a single
// browser tab, which never races against itself; if sessions are ever shared
// across clients, appends need a CAS loop or a server-side list here.
type SessionStore struct {
	client     valkey.Client
	ttlSeconds int
}

// NewSessionStore creates a session store sharing the cache's client.
func NewSessionStore(c *Cache, ttlSeconds int) *SessionStore {
	return &SessionStore{client: c.client, ttlSeconds: ttlSeconds}
}

// Get loads a session by id. A missing or expired session is an error.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.LocationSession, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(sessionKeyPrefix+id).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, fmt.Errorf("session %s: not found", id)
		}
		return nil, fmt.Errorf("session get: %w", err)
	}
	b, err := cmd.AsBytes()
	if err != nil {
		return nil, err
	}

	var session domain.LocationSession
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

// Save stores a session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, session *domain.LocationSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	cmd := s.client.Do(ctx, s.client.B().
		Set().Key(sessionKeyPrefix+session.ID).Value(string(b)).
		Ex(time.Duration(s.ttlSeconds)*time.Second).Build())
	if err := cmd.Error(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(sessionKeyPrefix+id).Build()).Error()
}
