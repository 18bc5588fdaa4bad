// Package http serves the JSON command and dashboard API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"voxpense/internal/engine"
	"voxpense/internal/log"
)

type Server struct {
	http.Server

	engine  *engine.Engine
	logger  *log.Logger
	limiter *rateLimiter
	metrics metrics

	shutdownOnce sync.Once
}

func NewServer(addr string, eng *engine.Engine, logger *log.Logger) *Server {
	s := &Server{
		engine:  eng,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: newRateLimiter(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/voice-command", s.withMiddleware(s.handleVoiceCommand))
	mux.HandleFunc("/api/expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("/api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("/api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("/api/recent", s.withMiddleware(s.handleRecent))
	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/api/daily", s.withMiddleware(s.handleDaily))
	mux.HandleFunc("/api/monthly", s.withMiddleware(s.handleMonthly))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
