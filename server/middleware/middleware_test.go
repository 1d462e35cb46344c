package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/logger"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	r := gin.New()
	r.Use(Recovery(log))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != apperrors.ErrCodeInternal {
		t.Errorf("code = %s", body.Error.Code)
	}
	if strings.Contains(w.Body.String(), "kaboom") {
		t.Error("panic value leaked to the client")
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Error("panic value not logged")
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("generated", func(t *testing.T) {
		w := serve(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(HeaderRequestID)
		if len(id) != 36 {
			t.Fatalf("generated id = %q", id)
		}
		if seen != id {
			t.Errorf("context id = %q, header = %q", seen, id)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := serve(t, r, req)
		if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
			t.Errorf("id = %q", got)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))
		w := serve(t, r, req)
		if got := w.Header().Get(HeaderRequestID); len(got) != 36 {
			t.Errorf("id = %q", got)
		}
	})
}

func TestCORS(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		ExposedHeaders: []string{"Content-Disposition"},
	}
	r := gin.New()
	r.Use(GinCORS(cfg))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "https://app.example.com", http.StatusOK, "https://app.example.com"},
		{"other origin", http.MethodGet, "https://evil.example.com", http.StatusOK, ""},
		{"no origin", http.MethodGet, "", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://app.example.com", http.StatusNoContent, "https://app.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := serve(t, r, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestCORS_Wildcard(t *testing.T) {
	h := http.Header{}
	setCORSHeaders(h, "https://any.example.com", CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true})
	if h.Get("Access-Control-Allow-Origin") != "https://any.example.com" {
		t.Errorf("allow-origin = %q", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials header missing")
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(GinBodySizeLimit("8B"))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name    string
		body    string
		chunked bool
		want    int
	}{
		{"within limit", "12345678", false, http.StatusOK},
		{"declared over limit", "123456789", false, http.StatusRequestEntityTooLarge},
		{"chunked within limit", "1234", true, http.StatusOK},
		{"chunked over limit", "123456789", true, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := serve(t, r, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestBodySizeLimit_DeclaredLengthEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(GinBodySizeLimit("8B"))
	reached := false
	r.POST("/", func(c *gin.Context) { reached = true })

	w := serve(t, r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456789")))
	if reached {
		t.Fatal("handler ran for an oversized body")
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != apperrors.ErrCodeInvalidInput || body.Error.Details["limit"] != float64(8) {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/status/:code", func(c *gin.Context) {
		switch c.Param("code") {
		case "404":
			c.Status(http.StatusNotFound)
		case "500":
			c.Status(http.StatusInternalServerError)
		default:
			c.Status(http.StatusOK)
		}
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/status/200", "debug"},
		{"/status/404", "warn"},
		{"/status/500", "error"},
		{"/health", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			serve(t, r, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if tt.wantLevel == "" {
				if buf.Len() != 0 {
					t.Errorf("probe logged: %s", buf.String())
				}
				return
			}
			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			if line["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", line["level"], tt.wantLevel)
			}
			if line["route"] != "/status/:code" {
				t.Errorf("route = %v", line["route"])
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/storage/count/:folder", func(c *gin.Context) { c.String(http.StatusOK, "12345") })

	for _, folder := range []string{"a", "b"} {
		serve(t, r, httptest.NewRequest(http.MethodGet, "/storage/count/"+folder, nil))
	}
	serve(t, r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/storage/count/:folder", "200")); got != 2 {
		t.Errorf("route requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bytesTransferred.WithLabelValues("out")); got != 10 {
		t.Errorf("bytes out = %v, want 10", got)
	}
	if n := testutil.CollectAndCount(m.requestDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestGinWrap_ShortCircuit(t *testing.T) {
	deny := Middleware(func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})
	r := gin.New()
	r.Use(GinWrap(deny))
	reached := false
	r.GET("/", func(*gin.Context) { reached = true })

	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d", w.Code)
	}
	if reached {
		t.Error("handler ran after middleware short-circuited")
	}
}
