package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/krshsl/placeprep/backend/models"
	"github.com/krshsl/placeprep/backend/repository"
	ws "github.com/krshsl/placeprep/backend/websocket"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	repo   *repository.GORMRepository

	events        EventPublisher
	amqp          *AMQPPublisher
	audioCache    *AudioCache
	tracker       *LiveSessionTracker
	wsHub         *ws.Hub
	stopHub       context.CancelFunc
	authService   *AuthService
	authEndpoints *AuthEndpoints

	profileEndpoints   *ProfileEndpoints
	resumeEndpoints    *ResumeEndpoints
	examEndpoints      *ExamEndpoints
	interviewEndpoints *InterviewEndpoints
	adminEndpoints     *AdminEndpoints
	websocketHandler   *WebSocketHandler
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{config: config}
}

// SetDatabase sets the database repository
func (s *Server) SetDatabase(repo *repository.GORMRepository) {
	s.repo = repo
}

// InitializeServices builds every service from config. The database must be set first.
func (s *Server) InitializeServices(ctx context.Context) error {
	if s.repo == nil {
		return errors.New("database repository is not set")
	}
	if s.config.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	// AI services. A nil *GeminiService must not end up inside the interfaces.
	var ai TextGenerator
	var transcriber Transcriber
	if gemini := NewGeminiService(s.config.AI.GeminiAPIKey, s.config.AI.GeminiModel); gemini != nil {
		ai = gemini
		transcriber = gemini
		slog.Info("Gemini service initialized", "model", s.config.AI.GeminiModel)
	}

	var speech SpeechSynthesizer
	if s.config.AI.ElevenLabsKey != "" {
		speech = NewElevenLabsService(s.config.AI.ElevenLabsKey)
		s.audioCache = NewAudioCache(s.config.AI.AudioCacheDir)
		slog.Info("ElevenLabs service initialized", "cache_dir", s.config.AI.AudioCacheDir)
	}

	s.events = NopPublisher{}
	if s.config.Events.AMQPURL != "" {
		publisher, err := NewAMQPPublisher(s.config.Events.AMQPURL, s.config.Events.Exchange)
		if err != nil {
			slog.Error("Failed to connect to AMQP broker, events disabled", "error", err)
		} else {
			s.amqp = publisher
			s.events = publisher
			slog.Info("AMQP event publisher initialized", "exchange", s.config.Events.Exchange)
		}
	}

	var files ResumeFileStore
	if s.config.Storage.Enabled() {
		store, err := NewS3ResumeStore(ctx, s.config.Storage)
		if err != nil {
			slog.Error("Failed to initialize resume storage, uploads will keep text only", "error", err)
		} else {
			files = store
			slog.Info("Resume storage initialized", "bucket", s.config.Storage.Bucket)
		}
	}

	s.authService = NewAuthService(s.repo, s.config.JWT.Secret, s.config.Server.IsProduction())
	s.authEndpoints = NewAuthEndpoints(s.authService)
	s.profileEndpoints = NewProfileEndpoints(s.repo, files)
	s.resumeEndpoints = NewResumeEndpoints(s.repo, ai, s.events)
	s.examEndpoints = NewExamEndpoints(
		s.repo,
		NewAnswerKeySigner(s.config.JWT.Secret, s.config.JWT.ExamKeyTTL),
		s.events,
		s.config.Exam.ViolationThreshold,
	)
	s.adminEndpoints = NewAdminEndpoints(s.repo, NewQuestionEndpoints(s.repo))

	interviews := NewInterviewService(s.repo, ai, s.events)
	s.interviewEndpoints = NewInterviewEndpoints(interviews)

	hubCtx, cancel := context.WithCancel(context.Background())
	s.stopHub = cancel
	s.wsHub = ws.NewHub()
	go s.wsHub.Run(hubCtx)

	s.tracker = NewLiveSessionTracker(s.config.WebSocket.IdleTimeout, s.config.WebSocket.InterviewLimit, nil)
	processor := NewVoiceInterviewProcessor(interviews, transcriber, s.tracker, s.wsHub, VoiceOptions{
		Speech:      speech,
		Cache:       s.audioCache,
		VoiceGender: s.config.AI.VoiceGender,
	})
	s.tracker.Start()
	s.websocketHandler = NewWebSocketHandler(s.wsHub, processor, interviews, s.config.WebSocket.AllowedOrigins)

	slog.Info("Services initialized")
	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		s.authEndpoints.RegisterRoutes(r)
		s.resumeEndpoints.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(s.authService.Middleware)

			s.authEndpoints.RegisterProtectedRoutes(r)
			s.profileEndpoints.RegisterRoutes(r)
			s.resumeEndpoints.RegisterRoutes(r)
			s.interviewEndpoints.RegisterRoutes(r)
			r.Get("/ws", s.websocketHandler.HandleWebSocket)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(models.RoleStudent))
				s.examEndpoints.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(models.RoleAdmin))
				s.adminEndpoints.RegisterRoutes(r)
			})
		})
	})

	return r
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts everything down
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	s.Close()

	slog.Info("Server exited")
}

// Close stops background workers and releases broker connections
func (s *Server) Close() {
	if s.tracker != nil {
		s.tracker.Stop()
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.amqp != nil {
		if err := s.amqp.Close(); err != nil {
			slog.Error("Failed to close AMQP connection", "error", err)
		}
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "up"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		slog.Error("Database ping failed", "error", err)
		dbStatus = "down"
		status = "degraded"
	}

	body := map[string]interface{}{
		"status":        status,
		"database":      dbStatus,
		"live_sessions": s.tracker.Active(),
		"connections":   s.wsHub.ConnectedSessions(),
	}
	if s.audioCache != nil {
		if files, size, err := s.audioCache.Stats(); err == nil {
			body["audio_cache"] = map[string]interface{}{"files": files, "bytes": size}
		}
	}

	writeJSON(w, http.StatusOK, body)
	slog.Info("Health check", "status", status, "database", dbStatus)
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API v1",
		"version": fmt.Sprintf("1.0.0 (%s)", s.config.Server.Environment),
	})
}
