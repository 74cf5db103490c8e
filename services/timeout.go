package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultInterviewLimit = 15 * time.Minute
	maxStrikes            = 3
	trackerInterval       = 30 * time.Second
)

// Expiry reasons passed to the tracker's expire callback
const (
	ReasonIdle      = "idle_timeout"
	ReasonTimeLimit = "time_limit"
)

var (
	ErrSessionNotTracked = errors.New("session is not tracked")
	ErrInvalidChunk      = errors.New("invalid audio chunk")
)

// LiveSession is the in-memory state of a connected voice interview
type LiveSession struct {
	SessionID    string
	UserID       string
	StartedAt    time.Time
	LastActivity time.Time
	Current      *QuestionView
	Asked        []string
	Strikes      int

	chunks      map[int][]byte
	totalChunks int
}

// LiveSessionTracker holds live interview state and ends sessions that sit idle or run too long
type LiveSessionTracker struct {
	sessions    map[string]*LiveSession
	idleTimeout time.Duration
	limit       time.Duration
	onExpire    func(sessionID, userID, reason string)
	now         func() time.Time
	mutex       sync.Mutex
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewLiveSessionTracker(idleTimeout, limit time.Duration, onExpire func(sessionID, userID, reason string)) *LiveSessionTracker {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if limit <= 0 {
		limit = DefaultInterviewLimit
	}
	return &LiveSessionTracker{
		sessions:    make(map[string]*LiveSession),
		idleTimeout: idleTimeout,
		limit:       limit,
		onExpire:    onExpire,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
}

// SetExpireHandler replaces the callback run for expired sessions
func (t *LiveSessionTracker) SetExpireHandler(onExpire func(sessionID, userID, reason string)) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.onExpire = onExpire
}

// Start runs the expiry checker until Stop is called
func (t *LiveSessionTracker) Start() {
	go func() {
		ticker := time.NewTicker(trackerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.CheckExpired()
			case <-t.stop:
				return
			}
		}
	}()
}

func (t *LiveSessionTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Register starts tracking a session. startedAt is when the session was created in the database.
func (t *LiveSessionTracker) Register(sessionID, userID string, startedAt time.Time) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if existing, ok := t.sessions[sessionID]; ok {
		existing.LastActivity = t.now()
		return
	}
	t.sessions[sessionID] = &LiveSession{
		SessionID:    sessionID,
		UserID:       userID,
		StartedAt:    startedAt,
		LastActivity: t.now(),
		chunks:       make(map[int][]byte),
	}
	slog.Info("Session registered for timeout tracking", "session_id", sessionID, "user_id", userID)
}

func (t *LiveSessionTracker) Remove(sessionID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.sessions, sessionID)
}

func (t *LiveSessionTracker) Touch(sessionID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		s.LastActivity = t.now()
	}
}

// SetQuestion records q as the question currently put to the student
func (t *LiveSessionTracker) SetQuestion(sessionID string, q *QuestionView) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		s.Current = q
		if q != nil {
			s.Asked = append(s.Asked, q.QuestionID)
		}
	}
}

// CurrentQuestion returns the open question and the ids already asked
func (t *LiveSessionTracker) CurrentQuestion(sessionID string) (*QuestionView, []string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return s.Current, append([]string(nil), s.Asked...)
}

// AddStrike counts an empty or unintelligible answer and returns the running total
func (t *LiveSessionTracker) AddStrike(sessionID string) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return 0
	}
	s.Strikes++
	slog.Info("Empty response recorded", "session_id", sessionID, "count", s.Strikes)
	return s.Strikes
}

func (t *LiveSessionTracker) ResetStrikes(sessionID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		s.Strikes = 0
	}
}

// AddAudioChunk stores one chunk of a recording
func (t *LiveSessionTracker) AddAudioChunk(sessionID string, index, total int, data []byte) error {
	if total <= 0 || index < 0 || index >= total {
		return fmt.Errorf("%w: index %d of %d", ErrInvalidChunk, index, total)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return ErrSessionNotTracked
	}
	if s.totalChunks != 0 && s.totalChunks != total {
		s.chunks = make(map[int][]byte)
	}
	s.totalChunks = total
	s.chunks[index] = append([]byte(nil), data...)
	s.LastActivity = t.now()
	return nil
}

// AssembleAudio joins the stored chunks in index order and clears them.
// Any missing chunk is an error and the partial recording is discarded.
func (t *LiveSessionTracker) AssembleAudio(sessionID string) ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotTracked
	}
	defer func() {
		s.chunks = make(map[int][]byte)
		s.totalChunks = 0
	}()

	if s.totalChunks == 0 {
		return nil, fmt.Errorf("%w: no chunks received", ErrInvalidChunk)
	}

	size := 0
	for i := 0; i < s.totalChunks; i++ {
		chunk, ok := s.chunks[i]
		if !ok {
			return nil, fmt.Errorf("%w: missing chunk %d of %d", ErrInvalidChunk, i, s.totalChunks)
		}
		size += len(chunk)
	}

	audio := make([]byte, 0, size)
	for i := 0; i < s.totalChunks; i++ {
		audio = append(audio, s.chunks[i]...)
	}
	return audio, nil
}

type expiredSession struct {
	sessionID string
	userID    string
	reason    string
}

// CheckExpired removes sessions past the idle timeout or the time limit and reports each one
func (t *LiveSessionTracker) CheckExpired() {
	t.mutex.Lock()
	now := t.now()
	var expired []expiredSession
	for id, s := range t.sessions {
		switch {
		case now.Sub(s.StartedAt) > t.limit:
			expired = append(expired, expiredSession{id, s.UserID, ReasonTimeLimit})
		case now.Sub(s.LastActivity) > t.idleTimeout:
			expired = append(expired, expiredSession{id, s.UserID, ReasonIdle})
		default:
			continue
		}
		delete(t.sessions, id)
	}
	onExpire := t.onExpire
	t.mutex.Unlock()

	for _, e := range expired {
		slog.Info("Live session expired", "session_id", e.sessionID, "reason", e.reason)
		if onExpire != nil {
			onExpire(e.sessionID, e.userID, e.reason)
		}
	}
}

func (t *LiveSessionTracker) Active() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.sessions)
}
