package services

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	ws "github.com/krshsl/placeprep/backend/websocket"
)

const (
	minAudioBytes       = 50 * 1024 // anything smaller is treated as silence
	voiceMessageTimeout = 90 * time.Second
	transcriptionPrompt = "Transcribe only clear, intelligible speech. If the audio is silent, empty, or unintelligible, return an empty string."
)

// Session end reasons
const (
	ReasonEndedByUser = "ended_by_user"
	ReasonStrikes     = "empty_response_limit"
)

var nonSpeechMarkers = []string{"vocalization", "humming", "mumbling", "audio", "noise", "unintelligible", "inaudible"}

// VoiceInterviewProcessor drives a live interview over a websocket connection
type VoiceInterviewProcessor struct {
	interviews  *InterviewService
	transcriber Transcriber
	tracker     *LiveSessionTracker
	hub         *ws.Hub
	speech      SpeechSynthesizer
	cache       *AudioCache
	voiceGender string
}

type VoiceOptions struct {
	Speech      SpeechSynthesizer
	Cache       *AudioCache
	VoiceGender string
}

func NewVoiceInterviewProcessor(interviews *InterviewService, transcriber Transcriber, tracker *LiveSessionTracker, hub *ws.Hub, opts VoiceOptions) *VoiceInterviewProcessor {
	p := &VoiceInterviewProcessor{
		interviews:  interviews,
		transcriber: transcriber,
		tracker:     tracker,
		hub:         hub,
		speech:      opts.Speech,
		cache:       opts.Cache,
		voiceGender: opts.VoiceGender,
	}
	if tracker != nil {
		tracker.SetExpireHandler(p.Expire)
	}
	return p
}

func send(client *ws.Client, msg ws.Message) {
	if err := client.SendMessage(msg); err != nil {
		slog.Warn("Failed to send message", "error", err, "session_id", client.SessionID, "type", msg.Type)
	}
}

// say sends interviewer text and, when speech is configured, the spoken version
func (p *VoiceInterviewProcessor) say(ctx context.Context, client *ws.Client, text string) {
	send(client, ws.Message{Type: ws.TypeText, Content: text})
	p.speak(ctx, client, text)
}

func (p *VoiceInterviewProcessor) speak(ctx context.Context, client *ws.Client, text string) {
	if p.speech == nil {
		return
	}
	voiceID := PickSessionVoice(client.SessionID, p.voiceGender)
	generate := func(ctx context.Context) (io.ReadCloser, error) {
		return p.speech.TextToSpeech(ctx, text, voiceID)
	}

	var audio []byte
	var err error
	if p.cache != nil {
		audio, err = p.cache.GetOrGenerate(ctx, text, voiceID, generate)
	} else {
		var reader io.ReadCloser
		if reader, err = generate(ctx); err == nil {
			audio, err = io.ReadAll(reader)
			reader.Close()
		}
	}
	if err != nil {
		slog.Error("Failed to synthesize speech", "error", err, "session_id", client.SessionID)
		return
	}

	send(client, ws.Message{
		Type:            ws.TypeAudio,
		AudioDataBase64: base64.StdEncoding.EncodeToString(audio),
		MimeType:        "audio/mpeg",
	})
}

// Attach starts tracking the client's session. It must run before the client's messages are read.
func (p *VoiceInterviewProcessor) Attach(client *ws.Client, startedAt time.Time) {
	p.tracker.Register(client.SessionID, client.UserID, startedAt)
}

// Start greets the student and asks the first question
func (p *VoiceInterviewProcessor) Start(client *ws.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), voiceMessageTimeout)
	defer cancel()

	p.say(ctx, client, phraseWelcome)
	p.askNextQuestion(ctx, client)
}

func (p *VoiceInterviewProcessor) askNextQuestion(ctx context.Context, client *ws.Client) {
	_, asked := p.tracker.CurrentQuestion(client.SessionID)
	question, err := p.interviews.PersonalizedQuestion(ctx, client.UserID, asked...)
	if err != nil {
		slog.Error("Failed to pick next question", "error", err, "session_id", client.SessionID)
		client.SendError("No interview questions are available right now")
		return
	}

	p.tracker.SetQuestion(client.SessionID, question)
	send(client, ws.Message{Type: ws.TypeQuestion, Content: question.QuestionText, Data: question})
	p.speak(ctx, client, question.QuestionText)
}

// HandleMessage routes one client message. It runs on the client's processing goroutine.
func (p *VoiceInterviewProcessor) HandleMessage(client *ws.Client, msg ws.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), voiceMessageTimeout)
	defer cancel()

	p.tracker.Touch(client.SessionID)

	switch msg.Type {
	case ws.TypeText:
		p.handleText(ctx, client, msg)
	case ws.TypeAudioChunk:
		p.handleAudioChunk(ctx, client, msg)
	case ws.TypeEndSession:
		p.say(ctx, client, phraseSessionClosed)
		p.finish(ctx, client, client.SessionID, client.UserID, ReasonEndedByUser)
	default:
		slog.Warn("Unknown message type", "type", msg.Type, "session_id", client.SessionID)
		client.SendError("Unsupported message type: " + msg.Type)
	}
}

func (p *VoiceInterviewProcessor) handleText(ctx context.Context, client *ws.Client, msg ws.Message) {
	answer := sanitizeText(msg.Content)
	if answer == "" {
		p.strike(ctx, client)
		return
	}
	p.answer(ctx, client, EvaluateInput{StudentAnswer: answer, DurationSeconds: msg.DurationSeconds}, answer)
}

func (p *VoiceInterviewProcessor) handleAudioChunk(ctx context.Context, client *ws.Client, msg ws.Message) {
	chunk, err := base64.StdEncoding.DecodeString(msg.AudioDataBase64)
	if err != nil || len(chunk) == 0 {
		slog.Error("Invalid audio chunk payload", "error", err, "session_id", client.SessionID)
		client.SendError("Invalid audio data")
		return
	}

	if err := p.tracker.AddAudioChunk(client.SessionID, msg.ChunkIndex, msg.TotalChunks, chunk); err != nil {
		slog.Error("Failed to store audio chunk", "error", err, "session_id", client.SessionID, "chunk_index", msg.ChunkIndex)
		client.SendError("Invalid audio chunk")
		return
	}
	if !msg.IsLastChunk {
		return
	}

	audio, err := p.tracker.AssembleAudio(client.SessionID)
	if err != nil {
		slog.Error("Failed to reconstruct audio from chunks", "error", err, "session_id", client.SessionID)
		client.SendError("Failed to reconstruct audio from chunks")
		return
	}

	if len(audio) < minAudioBytes {
		slog.Info("Audio below 50KB, treating as silence", "session_id", client.SessionID, "audio_size", len(audio))
		p.strike(ctx, client)
		return
	}

	if p.transcriber == nil {
		client.SendError("AI service not available")
		return
	}
	transcript, err := p.transcriber.TranscribeAudio(ctx, audio, msg.MimeType, transcriptionPrompt)
	if err != nil {
		slog.Error("Failed to transcribe audio", "error", err, "session_id", client.SessionID)
		client.SendError("Failed to transcribe audio")
		return
	}

	transcript = strings.TrimSpace(transcript)
	if isUnintelligible(transcript) {
		p.strike(ctx, client)
		return
	}
	p.answer(ctx, client, EvaluateInput{TranscribedAnswer: transcript, DurationSeconds: msg.DurationSeconds}, transcript)
}

func (p *VoiceInterviewProcessor) answer(ctx context.Context, client *ws.Client, in EvaluateInput, shown string) {
	p.tracker.ResetStrikes(client.SessionID)
	send(client, ws.Message{Type: ws.TypeUserMessage, Content: shown})

	current, _ := p.tracker.CurrentQuestion(client.SessionID)
	if current == nil {
		p.askNextQuestion(ctx, client)
		return
	}

	in.SessionID = client.SessionID
	in.QuestionID = current.QuestionID
	result, err := p.interviews.Evaluate(ctx, client.UserID, in)
	switch {
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrSessionNotFound):
		p.finish(ctx, client, client.SessionID, client.UserID, ReasonEndedByUser)
		return
	case errors.Is(err, ErrQuestionNotFound):
		p.askNextQuestion(ctx, client)
		return
	case err != nil:
		slog.Error("Failed to evaluate answer", "error", err, "session_id", client.SessionID)
		client.SendError("Failed to evaluate your answer. Please try again.")
		return
	}

	send(client, ws.Message{Type: ws.TypeEvaluation, Content: result.Evaluation.Feedback, Data: result})
	p.say(ctx, client, phraseNextQuestion)
	p.askNextQuestion(ctx, client)
}

func (p *VoiceInterviewProcessor) strike(ctx context.Context, client *ws.Client) {
	if p.tracker.AddStrike(client.SessionID) >= maxStrikes {
		p.say(ctx, client, phraseStrikeOut)
		p.finish(ctx, client, client.SessionID, client.UserID, ReasonStrikes)
		return
	}
	p.say(ctx, client, phraseNoAudio)
}

// Expire is the tracker callback for sessions that went idle or ran out of time
func (p *VoiceInterviewProcessor) Expire(sessionID, userID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if p.hub != nil {
		p.hub.SendToSession(sessionID, ws.Message{Type: ws.TypeText, Content: phraseTimeUp})
	}
	p.finish(ctx, nil, sessionID, userID, reason)
}

// finish ends the session in the database and tells the client. client may be nil.
func (p *VoiceInterviewProcessor) finish(ctx context.Context, client *ws.Client, sessionID, userID, reason string) {
	p.tracker.Remove(sessionID)

	data := map[string]interface{}{"reason": reason}
	session, err := p.interviews.OwnedOpenSession(ctx, userID, sessionID)
	switch {
	case err == nil:
		if err := p.interviews.EndSession(ctx, session, reason); err != nil {
			slog.Error("Failed to end live session", "error", err, "session_id", sessionID)
		}
		data["total_score"] = session.TotalScore
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrSessionNotFound):
	default:
		slog.Error("Failed to load live session", "error", err, "session_id", sessionID)
	}

	end := ws.Message{Type: ws.TypeEndSession, Content: "Session ended", SessionID: sessionID, Data: data}
	if client != nil {
		send(client, end)
		client.CloseAfterFlush()
		return
	}
	if p.hub != nil {
		p.hub.SendToSession(sessionID, end)
		p.hub.Disconnect(sessionID)
	}
}

// isUnintelligible reports whether a transcript carries no usable answer
func isUnintelligible(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	lower := strings.ToLower(trimmed)
	if lower == "" || len([]rune(trimmed)) < 2 {
		return true
	}

	words := strings.Fields(lower)
	if len(words) > 1 {
		allSame := true
		for _, w := range words[1:] {
			if w != words[0] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}

	if len(words) <= 5 {
		for _, marker := range nonSpeechMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}
