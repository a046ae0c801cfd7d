// Package server exposes the loader over a read-only JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pbrown/agent-transcripts/internal/debuglog"
	"github.com/pbrown/agent-transcripts/internal/loader"
	"github.com/pbrown/agent-transcripts/internal/transcript"
)

// Source is the read API the server serves from. Every call re-reads storage.
type Source interface {
	Phases() []string
	LoadTranscript(phase string, tool transcript.Tool) transcript.Transcript
	LoadAll() map[string]transcript.Transcript
	LoadAnnotations(phase string) []transcript.Annotation
	LoadPlans() transcript.Plans
	LoadPhase(phase string) loader.Phase
}

// New builds the gin router for src.
func New(src Source, log *debuglog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	h := &handler{src: src}

	api := router.Group("/api")
	{
		api.GET("/phases", h.ListPhases)
		api.GET("/phases/:phase", h.GetPhase)
		api.GET("/phases/:phase/:tool/view", h.GetView)
		api.GET("/transcripts", h.ListTranscripts)
		api.GET("/transcripts/:phase/:tool", h.GetTranscript)
		api.GET("/annotations/:phase", h.GetAnnotations)
		api.GET("/plans", h.GetPlans)
	}

	return router
}

// Run serves router on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// requestLogger records each request in the debug log.
func requestLogger(log *debuglog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Milliseconds())
	}
}
