package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/krshsl/placeprep/backend/models"
)

type publishedEvent struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key: key, payload: payload})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.key
	}
	return keys
}

func asUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(withUser(r.Context(), user))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func studentUser() *models.User {
	return &models.User{ID: "student-1", Email: "student@example.com", Role: models.RoleStudent, IsActive: true}
}

func adminUser() *models.User {
	return &models.User{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}
}
