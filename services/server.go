package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/insurelens/call-analyzer/backend/repository"
	"gorm.io/gorm"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	gormDB *repository.GORMRepository
	rawDB  *gorm.DB

	transcriptionService *TranscriptionService
	analysisService      *AnalysisService
	trainingService      *TrainingService
	reportGenerator      *ReportGenerator
	mediaStore           *MediaStore
	queue                *RecordingQueue
	metrics              *PipelineMetrics
	processor            *CallProcessor

	recordingEndpoints *RecordingEndpoints
	reportEndpoints    *ReportEndpoints
	trainingEndpoints  *TrainingEndpoints
	agentEndpoints     *AgentEndpoints
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{config: config}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *repository.GORMRepository, rawDB *gorm.DB) {
	s.gormDB = db
	s.rawDB = rawDB
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	media, err := NewMediaStore(s.config.Storage.MediaRoot)
	if err != nil {
		return err
	}
	s.mediaStore = media

	reports, err := NewReportGenerator(s.config.Storage.MediaRoot)
	if err != nil {
		return err
	}
	s.reportGenerator = reports

	if s.config.AI.AssemblyAIKey != "" {
		s.transcriptionService = NewTranscriptionService(
			s.config.AI.AssemblyAIKey,
			s.config.AI.AssemblyAIURL,
			time.Duration(s.config.AI.PollIntervalMS)*time.Millisecond,
		)
		slog.Info("Transcription service initialized")
	} else {
		slog.Warn("AssemblyAI key not configured, uploads will fail to process")
	}

	if s.config.AI.GeminiAPIKey != "" {
		s.analysisService = NewAnalysisService(s.config.AI.GeminiAPIKey, s.config.AI.AnalysisModel)
		s.trainingService = NewTrainingService(s.config.AI.GeminiAPIKey, s.config.AI.TrainingModel)
		slog.Info("Analysis and training services initialized")
	} else {
		slog.Warn("Gemini key not configured, analysis and training will fail")
	}

	if s.config.Queue.URL != "" {
		queue, err := NewRecordingQueue(s.config.Queue.URL, s.config.Queue.Subject)
		if err != nil {
			return err
		}
		s.queue = queue
		slog.Info("Recording queue initialized", "subject", s.config.Queue.Subject)
	} else {
		slog.Info("Queue not configured, processing recordings in-process")
	}

	s.metrics = NewPipelineMetrics()

	var transcriber Transcriber
	if s.transcriptionService != nil {
		transcriber = s.transcriptionService
	}
	var analyzer ConversationAnalyzer
	if s.analysisService != nil {
		analyzer = s.analysisService
	}
	s.processor = NewCallProcessor(
		s.gormDB,
		transcriber,
		analyzer,
		s.reportGenerator,
		s.mediaStore,
		enqueuerOrNil(s.queue),
		s.metrics,
	)

	if s.queue != nil {
		if _, err := s.queue.SubscribeRecordingUploaded(func(recordingID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := s.processor.ProcessRecording(ctx, recordingID); err != nil {
				slog.Error("Failed to process recording", "error", err, "recording_id", recordingID)
			}
		}); err != nil {
			return err
		}
		slog.Info("Pipeline worker subscribed")
	}

	s.recordingEndpoints = NewRecordingEndpoints(s.gormDB, s.mediaStore, s.processor, s.reportGenerator)
	s.reportEndpoints = NewReportEndpoints(s.gormDB, s.reportGenerator)
	s.trainingEndpoints = NewTrainingEndpoints(s.gormDB, s.trainingService)
	s.agentEndpoints = NewAgentEndpoints(s.gormDB)

	return nil
}

// enqueuerOrNil keeps the processor's queue field a true nil when no queue
// is configured, instead of a non-nil interface wrapping a nil pointer.
func enqueuerOrNil(q *RecordingQueue) Enqueuer {
	if q == nil {
		return nil
	}
	return q
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		s.recordingEndpoints.RegisterRoutes(r)
		s.reportEndpoints.RegisterRoutes(r)
		s.trainingEndpoints.RegisterRoutes(r)
		s.agentEndpoints.RegisterRoutes(r)
	})

	return r
}

// Start starts the HTTP server and blocks until shutdown
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

	if s.queue != nil {
		s.queue.Close()
	}

	slog.Info("Server exited")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if sqlDB, err := s.rawDB.DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}
