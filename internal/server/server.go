package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-scout/internal/config"
	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/ingest"
	"github.com/jonathan/job-scout/internal/scheduler"
	"github.com/jonathan/job-scout/internal/server/middleware"
	"github.com/jonathan/job-scout/internal/server/ratelimit"
)

// Store is the slice of the database layer the HTTP handlers need.
type Store interface {
	UserStore

	CreateProfile(ctx context.Context, input *db.CreateProfileInput) (*db.SearchProfile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*db.SearchProfile, error)
	ListProfilesByUser(ctx context.Context, userID uuid.UUID) ([]db.SearchProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input *db.UpdateProfileInput) (*db.SearchProfile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	SearchPostings(ctx context.Context, opts db.SearchPostingsOptions) ([]db.JobPosting, error)
	GetPostingByID(ctx context.Context, id uuid.UUID) (*db.JobPosting, error)

	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db.NotificationRecord, error)
	ListRecentRuns(ctx context.Context, limit int) ([]db.IngestionRun, error)
}

// Trigger runs a one-off ingestion batch on demand.
type Trigger interface {
	IngestActiveProfiles(ctx context.Context) (ingest.Summary, error)
}

// Sched is the scheduler surface exposed over the API.
type Sched interface {
	Start() error
	Stop()
	Status() scheduler.Status
}

// Server wires the HTTP API over the store, the ingestion pipeline and the
// scheduler.
type Server struct {
	httpServer  *http.Server
	store       Store
	pipeline    Trigger
	scheduler   Sched
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
}

// Config holds server configuration.
type Config struct {
	Addr string
}

// New builds a Server with auth, rate limiting and all routes configured.
func New(cfg Config, store Store, pipe Trigger, sched Sched) (*Server, error) {
	s := &Server{
		store:       store,
		pipeline:    pipe,
		scheduler:   sched,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(store, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.limitRate(s.logRequests(s.allowCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // ingestion triggers can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes registers every endpoint. Profile, notification and operational
// endpoints require a valid token; posting search is public.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("PUT /auth/password", authed(s.handleUpdatePassword))

	mux.Handle("POST /profiles", authed(s.handleCreateProfile))
	mux.Handle("GET /profiles", authed(s.handleListProfiles))
	mux.Handle("GET /profiles/{id}", authed(s.handleGetProfile))
	mux.Handle("PUT /profiles/{id}", authed(s.handleUpdateProfile))
	mux.Handle("DELETE /profiles/{id}", authed(s.handleDeleteProfile))

	mux.HandleFunc("GET /postings", s.handleSearchPostings)
	mux.HandleFunc("GET /postings/{id}", s.handleGetPosting)

	mux.Handle("GET /notifications", authed(s.handleListNotifications))

	mux.Handle("POST /ingestion/trigger", authed(s.handleTriggerIngestion))
	mux.Handle("GET /ingestion/runs", authed(s.handleListRuns))
	mux.Handle("GET /scheduler/status", authed(s.handleSchedulerStatus))
	mux.Handle("POST /scheduler/start", authed(s.handleSchedulerStart))
	mux.Handle("POST /scheduler/stop", authed(s.handleSchedulerStop))

	return mux
}

// Start begins listening for requests and blocks until SIGINT/SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	log.Println("Server stopped")
	return nil
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// allowCORS answers preflight requests and marks every response as
// cross-origin safe.
func (s *Server) allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitRate checks the per-client bucket before the request reaches a
// handler. Limit headers go out on allowed responses too, so well-behaved
// clients can pace themselves.
func (s *Server) limitRate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitExceeded(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs each request with its handling time.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes data as a JSON response body.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes message in the standard error envelope.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}
	s.authHandler.UpdatePasswordWithUserID(w, r, userID)
}

// clientIP identifies the client for rate limiting by RemoteAddr.
// X-Forwarded-For is ignored; it would only be safe behind a trusted proxy.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders reports the client's remaining budget in the standard
// X-RateLimit headers. Unlimited endpoints get no headers.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit <= 0 {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}

// rateLimitExceeded writes the 429 body with enough detail for the client to
// back off sensibly.
func (s *Server) rateLimitExceeded(w http.ResponseWriter, info ratelimit.Info) {
	body := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		body["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, body)
}
