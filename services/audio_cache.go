package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Interviewer lines spoken in every voice session
const (
	phraseWelcome       = "Hello! Welcome to your mock interview. Let's get started."
	phraseNextQuestion  = "Thank you for that response. Here's your next question."
	phraseNoAudio       = "I couldn't hear a clear response. Please try again."
	phraseStrikeOut     = "It seems we've had several attempts without a valid response. We'll end the session here."
	phraseSessionClosed = "Thank you for your time today. The interview is now complete."
	phraseTimeUp        = "We've reached the time limit for this interview. Thank you for your time today."
)

var commonPhrases = map[string]bool{
	phraseWelcome:       true,
	phraseNextQuestion:  true,
	phraseNoAudio:       true,
	phraseStrikeOut:     true,
	phraseSessionClosed: true,
	phraseTimeUp:        true,
}

// AudioCache stores synthesized audio for common interviewer phrases on disk
type AudioCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

func NewAudioCache(cacheDir string) *AudioCache {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		slog.Error("Failed to create cache directory", "dir", cacheDir, "error", err)
	}
	return &AudioCache{cacheDir: cacheDir}
}

func (ac *AudioCache) cachePath(text, voiceID string) string {
	hash := sha256.Sum256([]byte(voiceID + ":" + text))
	return filepath.Join(ac.cacheDir, hex.EncodeToString(hash[:])+".mp3")
}

func (ac *AudioCache) IsCommonPhrase(text string) bool {
	return commonPhrases[text]
}

func (ac *AudioCache) get(text, voiceID string) ([]byte, bool) {
	ac.mutex.RLock()
	defer ac.mutex.RUnlock()

	path := ac.cachePath(text, voiceID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to read cached audio", "path", path, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (ac *AudioCache) set(text, voiceID string, data []byte) error {
	ac.mutex.Lock()
	defer ac.mutex.Unlock()

	// write then rename so readers never see a partial file
	path := ac.cachePath(text, voiceID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// GetOrGenerate returns cached audio for common phrases and otherwise calls generate.
// Only common phrases are written to disk.
func (ac *AudioCache) GetOrGenerate(ctx context.Context, text, voiceID string, generate func(ctx context.Context) (io.ReadCloser, error)) ([]byte, error) {
	common := ac.IsCommonPhrase(text)
	if common {
		if data, ok := ac.get(text, voiceID); ok {
			slog.Debug("Cache hit for common phrase", "voice_id", voiceID)
			return data, nil
		}
	}

	reader, err := generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate audio: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if common {
		if err := ac.set(text, voiceID, data); err != nil {
			slog.Warn("Failed to cache audio", "error", err)
		}
	}
	return data, nil
}

// Stats reports the number and total size of cached clips
func (ac *AudioCache) Stats() (int, int64, error) {
	ac.mutex.RLock()
	defer ac.mutex.RUnlock()

	entries, err := os.ReadDir(ac.cacheDir)
	if err != nil {
		return 0, 0, err
	}

	var totalSize int64
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".mp3" {
			continue
		}
		count++
		if info, err := entry.Info(); err == nil {
			totalSize += info.Size()
		}
	}
	return count, totalSize, nil
}
