package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobgate/component"
	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/server/middleware"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.NewNop())
	s.ApplyDefaults("blobgate", func(context.Context) []component.Health {
		return []component.Health{{Name: "storage", Status: component.StatusHealthy}}
	})
	return s
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodySize == "" || cfg.WriteTimeout == 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -1 }},
		{"negative write timeout", func(c *Config) { c.WriteTimeout = -1 }},
		{"negative idle timeout", func(c *Config) { c.IdleTimeout = -1 }},
		{"bad body size", func(c *Config) { c.MaxBodySize = "lots" }},
		{"negative drain delay", func(c *Config) { c.DrainDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServer_DefaultEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/info", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			if w.Code != http.StatusOK {
				t.Errorf("code = %d, body = %s", w.Code, w.Body.String())
			}
			if w.Header().Get(middleware.HeaderRequestID) == "" {
				t.Error("request id header missing")
			}
		})
	}
}

func TestServer_MetricsCountRequests(t *testing.T) {
	s := newTestServer(t)
	s.Engine().GET("/storage/count/:folder", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/count/docs", nil))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `blobgate_http_requests_total{method="GET",route="/storage/count/:folder",status="200"} 1`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("metrics missing %q", want)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("go collector not registered")
	}
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t)
	sc := NewComponent(s)

	if h := sc.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := sc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = sc.Stop(context.Background()) })

	if h := sc.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s", h.Status)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Fatalf("Addr not resolved: %s", s.Addr())
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health/live", s.Addr()))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if d := sc.Describe(); d.Type != "server" {
		t.Errorf("describe type = %q", d.Type)
	}
}

func TestServer_Drain(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", DrainDelay: time.Hour}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.NewNop())
	sc := NewComponent(s)
	s.ApplyDefaults("blobgate", func(ctx context.Context) []component.Health {
		return []component.Health{sc.Health(ctx)}
	})
	if err := sc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = sc.Stop(context.Background()) })

	ready := func() int {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		return w.Code
	}
	if got := ready(); got != http.StatusOK {
		t.Fatalf("ready before drain = %d", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	begin := time.Now()
	s.Drain(ctx)
	if time.Since(begin) > 5*time.Second {
		t.Error("Drain ignored context cancellation")
	}

	if got := ready(); got != http.StatusServiceUnavailable {
		t.Errorf("ready while draining = %d, want 503", got)
	}
	if h := sc.Health(context.Background()); h.Message != "draining" {
		t.Errorf("health = %+v", h)
	}
	// Live traffic is still served until Stop.
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("live while draining = %d", w.Code)
	}

	begin = time.Now()
	s.Drain(context.Background())
	if time.Since(begin) > time.Second {
		t.Error("second Drain waited again")
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  apperrors.ErrorCode
	}{
		{"app error", apperrors.NotFound("file", "docs/a.txt"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"wrapped app error", fmt.Errorf("ctx: %w", apperrors.Validation("File not provided")), http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			RespondWithError(c, logger.NewNop(), tt.err)

			if w.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tt.wantCode)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantErr {
				t.Errorf("error code = %s, want %s", body.Error.Code, tt.wantErr)
			}
			if strings.Contains(w.Body.String(), "disk on fire") {
				t.Error("cause leaked to client")
			}
		})
	}
}
