// Package http exposes the ledger as a JSON API. Read endpoints serve from
// small LRU caches that are flushed on every mutation, so responses never
// lag behind the state they were computed from.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"paisa/internal/cache"
	"paisa/internal/core"
	"paisa/internal/log"
	"paisa/internal/services"
)

type Server struct {
	http.Server
	svc         *services.LedgerService
	rateLimiter *rateLimiter

	summaryCache   *cache.LRUCache[SummaryView]
	breakdownCache *cache.LRUCache[[]core.BreakdownEntry]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:            svc,
		rateLimiter:    newRateLimiter(),
		summaryCache:   cache.NewLRUCache[SummaryView](16, 5*time.Minute),
		breakdownCache: cache.NewLRUCache[[]core.BreakdownEntry](16, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/breakdown", s.withSecurityHeaders(s.handleBreakdown))

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions", s.withSecurityHeaders(s.handleClearTransactions))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/activities", s.withSecurityHeaders(s.handleListActivities))
	mux.HandleFunc("POST /api/activities", s.withSecurityHeaders(s.handleCreateActivity))
	mux.HandleFunc("PUT /api/activities/{id}", s.withSecurityHeaders(s.handleUpdateActivity))
	mux.HandleFunc("DELETE /api/activities/{id}", s.withSecurityHeaders(s.handleDeleteActivity))
	mux.HandleFunc("POST /api/activities/{id}/subitems", s.withSecurityHeaders(s.handleAddSubitem))
	mux.HandleFunc("DELETE /api/activities/{id}/subitems/{subitemID}", s.withSecurityHeaders(s.handleRemoveSubitem))

	mux.HandleFunc("GET /api/loans", s.withSecurityHeaders(s.handleListLoans))
	mux.HandleFunc("POST /api/loans", s.withSecurityHeaders(s.handleCreateLoan))
	mux.HandleFunc("GET /api/loans/{id}", s.withSecurityHeaders(s.handleGetLoan))
	mux.HandleFunc("DELETE /api/loans/{id}", s.withSecurityHeaders(s.handleDeleteLoan))
	mux.HandleFunc("POST /api/loans/{id}/payments", s.withSecurityHeaders(s.handlePayEMI))

	mux.HandleFunc("GET /api/savings", s.withSecurityHeaders(s.handleListSavings))
	mux.HandleFunc("POST /api/savings", s.withSecurityHeaders(s.handleCreateSavings))
	mux.HandleFunc("PUT /api/savings/{id}", s.withSecurityHeaders(s.handleUpdateSavings))
	mux.HandleFunc("DELETE /api/savings/{id}", s.withSecurityHeaders(s.handleDeleteSavings))

	mux.HandleFunc("GET /api/notifications", s.withSecurityHeaders(s.handleListNotifications))
	mux.HandleFunc("POST /api/notifications/read-all", s.withSecurityHeaders(s.handleMarkAllNotificationsRead))
	mux.HandleFunc("POST /api/notifications/{id}/read", s.withSecurityHeaders(s.handleMarkNotificationRead))

	return s
}

// invalidateViews flushes the read-side caches after any mutation.
func (s *Server) invalidateViews() {
	s.summaryCache.Clear()
	s.breakdownCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		// Rate limit mutations only; reads are cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
