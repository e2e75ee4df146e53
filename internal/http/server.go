// Package http serves the JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const (
	// DefaultOwnerHeader carries the authenticated user ID set by the
	// identity proxy in front of the API.
	DefaultOwnerHeader = "X-User-ID"

	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Pinger reports whether a backing dependency is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server settings that do not come from dependencies.
type Config struct {
	Addr               string
	OwnerHeader        string
	Currency           string
	RateLimitPerMinute int
}

// Deps are the services behind the API.
type Deps struct {
	Transactions *services.TransactionService
	Loans        *services.LoanService
	Goals        *services.GoalService
	Overview     *services.Overviewer
	Ready        Pinger
}

type Server struct {
	http.Server
	deps        Deps
	ownerHeader string
	currency    string
	logger      *log.Logger
	requests    *log.RequestLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	today       func() core.Date

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(cfg Config, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	ownerHeader := strings.TrimSpace(cfg.OwnerHeader)
	if ownerHeader == "" {
		ownerHeader = DefaultOwnerHeader
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = core.DefaultCurrency
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		deps:        deps,
		ownerHeader: ownerHeader,
		currency:    currency,
		logger:      logger.WithComponent(log.ComponentHTTP),
		requests:    log.NewRequestLogger(logger),
		rateLimiter: newRateLimiter(cfg.RateLimitPerMinute),
		metrics:     &securityMetrics{},
		today:       core.Today,
	}

	mux.HandleFunc("GET /healthz", s.withObservability(handleHealth))
	mux.HandleFunc("GET /readyz", s.withObservability(s.handleReady))
	mux.HandleFunc("GET /api/security", s.withObservability(s.handleSecurityMetrics))

	mux.HandleFunc("POST /api/calculators/simple", s.public(s.handleSimpleInterest))
	mux.HandleFunc("POST /api/calculators/compound", s.public(s.handleCompoundInterest))

	mux.HandleFunc("GET /api/transactions", s.owned(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.owned(s.handleCreateTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.owned(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.owned(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/categories", s.owned(s.handleCategories))
	mux.HandleFunc("GET /api/dashboard", s.owned(s.handleDashboard))
	mux.HandleFunc("GET /api/reports", s.owned(s.handleReport))
	mux.HandleFunc("GET /api/overview", s.owned(s.handleOverview))

	mux.HandleFunc("GET /api/loans", s.owned(s.handleListLoans))
	mux.HandleFunc("POST /api/loans", s.owned(s.handleCreateLoan))
	mux.HandleFunc("DELETE /api/loans/{id}", s.owned(s.handleDeleteLoan))
	mux.HandleFunc("POST /api/loans/{id}/payments", s.owned(s.handleLoanPayment))

	mux.HandleFunc("GET /api/goals", s.owned(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.owned(s.handleCreateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.owned(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/funds", s.owned(s.handleGoalFunds))

	return s
}

// Shutdown stops background routines and the HTTP server. Only the first
// call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withObservability assigns a request ID, logs the request, applies the
// security headers and counts suspicious requests.
func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.requests.Base().With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = log.WithContext(ctx, reqLogger)
		r = r.WithContext(ctx)

		s.requests.Start(ctx, r, clientIP)
		if detectSuspiciousRequest(r, s.metrics) {
			reqLogger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}

		setSecurityHeaders(w, r)
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)
		s.requests.End(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// public adds rate limiting of mutating requests to withObservability.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	return s.withObservability(func(w http.ResponseWriter, r *http.Request) {
		if isMutating(r.Method) {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
					"Rate limit exceeded", log.FieldClientIP, clientIP, log.FieldMethod, r.Method)
				TooManyRequestsError("60").Write(w)
				return
			}
		}
		next(w, r)
	})
}

// owned additionally requires the owner header and puts the owner on the
// request context.
func (s *Server) owned(next http.HandlerFunc) http.HandlerFunc {
	return s.public(func(w http.ResponseWriter, r *http.Request) {
		owner := sanitizeInput(r.Header.Get(s.ownerHeader))
		if owner == "" {
			s.metrics.missingOwner.Add(1)
			UnauthorizedError("missing " + s.ownerHeader + " header").Write(w)
			return
		}
		ctx := withOwner(r.Context(), owner)
		ctx = log.WithContext(ctx, log.FromContext(ctx).With(log.FieldOwnerID, owner))
		next(w, r.WithContext(ctx))
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleSecurityMetrics(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.metrics.snapshot()).Write(w)
}
