package services

import (
	"bytes"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type expiry struct {
	sessionID string
	userID    string
	reason    string
}

func newTestTracker(start time.Time) (*LiveSessionTracker, *time.Time, *[]expiry) {
	clock := start
	var mu sync.Mutex
	var expired []expiry
	tracker := NewLiveSessionTracker(5*time.Minute, 15*time.Minute, func(sessionID, userID, reason string) {
		mu.Lock()
		defer mu.Unlock()
		expired = append(expired, expiry{sessionID, userID, reason})
	})
	tracker.now = func() time.Time { return clock }
	return tracker, &clock, &expired
}

func TestNewLiveSessionTrackerDefaults(t *testing.T) {
	tracker := NewLiveSessionTracker(0, -1, nil)
	if tracker.idleTimeout != DefaultIdleTimeout {
		t.Errorf("idleTimeout = %v, expected %v", tracker.idleTimeout, DefaultIdleTimeout)
	}
	if tracker.limit != DefaultInterviewLimit {
		t.Errorf("limit = %v, expected %v", tracker.limit, DefaultInterviewLimit)
	}
}

func TestCheckExpired(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tracker, clock, expired := newTestTracker(start)

	tracker.Register("active", "u1", start)
	tracker.Register("idle", "u2", start)
	// created long ago, still chatting: the time limit wins over activity
	tracker.Register("marathon", "u3", start.Add(-14*time.Minute))

	*clock = start.Add(4 * time.Minute)
	tracker.Touch("active")
	tracker.Touch("marathon")

	*clock = start.Add(6 * time.Minute)
	tracker.CheckExpired()

	got := append([]expiry(nil), (*expired)...)
	sort.Slice(got, func(i, j int) bool { return got[i].sessionID < got[j].sessionID })
	expected := []expiry{
		{"idle", "u2", ReasonIdle},
		{"marathon", "u3", ReasonTimeLimit},
	}
	if len(got) != len(expected) {
		t.Fatalf("expired = %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("expired[%d] = %v, expected %v", i, got[i], expected[i])
		}
	}
	if tracker.Active() != 1 {
		t.Errorf("Active() = %d, expected 1", tracker.Active())
	}

	// expired sessions are reported once
	tracker.CheckExpired()
	if len(*expired) != 2 {
		t.Errorf("expected no new expiries, got %v", *expired)
	}
}

func TestCheckExpiredBothReasonsReportsTimeLimit(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tracker, clock, expired := newTestTracker(start)
	tracker.Register("s1", "u1", start)

	*clock = start.Add(20 * time.Minute)
	tracker.CheckExpired()

	if len(*expired) != 1 || (*expired)[0].reason != ReasonTimeLimit {
		t.Errorf("expired = %v, expected a single %s expiry", *expired, ReasonTimeLimit)
	}
}

func TestRegisterTwiceKeepsState(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tracker, _, _ := newTestTracker(start)

	tracker.Register("s1", "u1", start)
	tracker.SetQuestion("s1", &QuestionView{QuestionID: "q1"})
	tracker.AddStrike("s1")
	tracker.Register("s1", "u1", start)

	current, asked := tracker.CurrentQuestion("s1")
	if current == nil || current.QuestionID != "q1" {
		t.Errorf("current question = %v, expected q1", current)
	}
	if len(asked) != 1 || asked[0] != "q1" {
		t.Errorf("asked = %v, expected [q1]", asked)
	}
	if tracker.Active() != 1 {
		t.Errorf("Active() = %d, expected 1", tracker.Active())
	}
}

func TestStrikes(t *testing.T) {
	tracker, _, _ := newTestTracker(time.Now())
	tracker.Register("s1", "u1", time.Now())

	for i := 1; i <= maxStrikes; i++ {
		if got := tracker.AddStrike("s1"); got != i {
			t.Errorf("AddStrike() = %d, expected %d", got, i)
		}
	}
	tracker.ResetStrikes("s1")
	if got := tracker.AddStrike("s1"); got != 1 {
		t.Errorf("AddStrike() after reset = %d, expected 1", got)
	}
	if got := tracker.AddStrike("unknown"); got != 0 {
		t.Errorf("AddStrike() for untracked session = %d, expected 0", got)
	}
}

func TestCurrentQuestionReturnsCopy(t *testing.T) {
	tracker, _, _ := newTestTracker(time.Now())
	tracker.Register("s1", "u1", time.Now())
	tracker.SetQuestion("s1", &QuestionView{QuestionID: "q1"})

	_, asked := tracker.CurrentQuestion("s1")
	asked[0] = "changed"

	_, again := tracker.CurrentQuestion("s1")
	if again[0] != "q1" {
		t.Errorf("asked list was mutated through the returned slice: %v", again)
	}

	if current, asked := tracker.CurrentQuestion("missing"); current != nil || asked != nil {
		t.Errorf("expected nil results for an untracked session, got %v %v", current, asked)
	}
}

func TestAudioChunks(t *testing.T) {
	tests := []struct {
		name     string
		chunks   [][]byte
		order    []int
		skip     int
		expected []byte
		wantErr  bool
	}{
		{
			name:     "in order",
			chunks:   [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")},
			order:    []int{0, 1, 2},
			skip:     -1,
			expected: []byte("abcdef"),
		},
		{
			name:     "out of order",
			chunks:   [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")},
			order:    []int{2, 0, 1},
			skip:     -1,
			expected: []byte("abcdef"),
		},
		{
			name:    "missing chunk",
			chunks:  [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")},
			order:   []int{0, 1, 2},
			skip:    1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _, _ := newTestTracker(time.Now())
			tracker.Register("s1", "u1", time.Now())

			for _, i := range tt.order {
				if i == tt.skip {
					continue
				}
				if err := tracker.AddAudioChunk("s1", i, len(tt.chunks), tt.chunks[i]); err != nil {
					t.Fatalf("AddAudioChunk(%d) error = %v", i, err)
				}
			}

			audio, err := tracker.AssembleAudio("s1")
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidChunk) {
					t.Fatalf("expected ErrInvalidChunk, got %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("AssembleAudio() error = %v", err)
				}
				if !bytes.Equal(audio, tt.expected) {
					t.Errorf("audio = %q, expected %q", audio, tt.expected)
				}
			}

			// chunks are cleared either way
			if _, err := tracker.AssembleAudio("s1"); !errors.Is(err, ErrInvalidChunk) {
				t.Errorf("expected buffer to be cleared, got %v", err)
			}
		})
	}
}

func TestAddAudioChunkValidation(t *testing.T) {
	tracker, _, _ := newTestTracker(time.Now())
	tracker.Register("s1", "u1", time.Now())

	tests := []struct {
		name      string
		sessionID string
		index     int
		total     int
		expected  error
	}{
		{"zero total", "s1", 0, 0, ErrInvalidChunk},
		{"negative index", "s1", -1, 2, ErrInvalidChunk},
		{"index past total", "s1", 2, 2, ErrInvalidChunk},
		{"untracked session", "other", 0, 1, ErrSessionNotTracked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tracker.AddAudioChunk(tt.sessionID, tt.index, tt.total, []byte("x"))
			if !errors.Is(err, tt.expected) {
				t.Errorf("AddAudioChunk() error = %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestAddAudioChunkNewRecordingResetsBuffer(t *testing.T) {
	tracker, _, _ := newTestTracker(time.Now())
	tracker.Register("s1", "u1", time.Now())

	if err := tracker.AddAudioChunk("s1", 0, 3, []byte("stale")); err != nil {
		t.Fatal(err)
	}
	if err := tracker.AddAudioChunk("s1", 0, 1, []byte("fresh")); err != nil {
		t.Fatal(err)
	}

	audio, err := tracker.AssembleAudio("s1")
	if err != nil {
		t.Fatalf("AssembleAudio() error = %v", err)
	}
	if string(audio) != "fresh" {
		t.Errorf("audio = %q, expected %q", audio, "fresh")
	}
}
