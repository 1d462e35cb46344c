package bootstrap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/blobgate/component"
	"github.com/kbukum/blobgate/config"
	"github.com/kbukum/blobgate/logger"
)

type testConfig struct {
	config.ServiceConfig
}

// recorder collects lifecycle events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

func (r *recorder) hook(e string) Hook {
	return func(context.Context) error { r.add(e); return nil }
}

type mockComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
	status   component.HealthStatus
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	m.rec.add("start:" + m.name)
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	m.rec.add("stop:" + m.name)
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) component.Health {
	status := m.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "blobgate", Version: "1.2.3"}}
	app, err := NewApp(cfg, append([]Option{WithLogger(logger.NewNop())}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "blobgate" || app.Version != "1.2.3" {
		t.Errorf("name/version = %q/%q", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: environment = %q", app.Cfg.Environment)
	}
	if app.Components == nil || app.Logger == nil {
		t.Error("registry or logger missing")
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("graceful timeout = %s", app.gracefulTimeout)
	}
}

func TestNewApp_Validation(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.NewNop()))
	if err == nil || !strings.Contains(err.Error(), "config.name") {
		t.Errorf("err = %v, want name validation error", err)
	}
}

func TestNewApp_InitializesGlobalLogger(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "blobgate"}}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if app.Logger != logger.GetGlobalLogger() {
		t.Error("app logger is not the global logger")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(3*time.Second))
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("graceful timeout = %s", app.gracefulTimeout)
	}
}

func TestLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t)
	for _, name := range []string{"telemetry", "storage", "http-server"} {
		if err := app.RegisterComponent(&mockComponent{name: name, rec: rec}); err != nil {
			t.Fatal(err)
		}
	}
	app.OnReady(func(context.Context) error {
		if app.Components.Get("storage") == nil {
			t.Error("storage component not reachable once ready")
		}
		rec.add("onReady")
		return nil
	})
	app.OnStop(rec.hook("onStop"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "start:telemetry,start:storage,start:http-server,onReady," +
		"onStop,stop:http-server,stop:storage,stop:telemetry"
	if got := rec.String(); got != want {
		t.Errorf("events:\n got %s\nwant %s", got, want)
	}
}

func TestRegisterComponent_Duplicate(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	if err := app.RegisterComponent(&mockComponent{name: "storage", rec: rec}); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "storage", rec: rec}); err == nil {
		t.Error("duplicate registration accepted")
	}
}

func TestStart_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		setup   func(app *App[*testConfig], rec *recorder)
		wantErr string
	}{
		{
			name: "component start",
			setup: func(app *App[*testConfig], rec *recorder) {
				_ = app.RegisterComponent(&mockComponent{name: "storage", rec: rec, startErr: boom})
			},
			wantErr: "initialization failed",
		},
		{
			name: "onReady hook",
			setup: func(app *App[*testConfig], _ *recorder) {
				app.OnReady(func(context.Context) error { return boom })
			},
			wantErr: "onReady hook failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			app := newTestApp(t)
			_ = app.RegisterComponent(&mockComponent{name: "telemetry", rec: rec})
			tt.setup(app, rec)

			err := app.Start(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) || !errors.Is(err, boom) {
				t.Fatalf("err = %v, want %q wrapping boom", err, tt.wantErr)
			}
			if !strings.Contains(rec.String(), "stop:telemetry") {
				t.Errorf("started components not stopped: %s", rec)
			}
		})
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name     string
		statuses []component.HealthStatus
		wantErr  bool
	}{
		{"empty", nil, false},
		{"all healthy", []component.HealthStatus{component.StatusHealthy, component.StatusHealthy}, false},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, true},
		{"unhealthy", []component.HealthStatus{component.StatusUnhealthy}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			for i, s := range tt.statuses {
				_ = app.RegisterComponent(&mockComponent{name: string(rune('a' + i)), rec: &recorder{}, status: s})
			}
			if err := app.ReadyCheck(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("ReadyCheck() = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestShutdown_JoinsErrors(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "storage", rec: rec, stopErr: errors.New("flush failed")})
	app.OnStop(func(context.Context) error { return errors.New("drain failed") })

	if err := app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := app.Shutdown(context.Background())
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("Shutdown() = %v", err)
	}
	if !strings.Contains(rec.String(), "stop:storage") {
		t.Error("component not stopped after hook failure")
	}
}

func TestWaitForSignal_ContextCanceled(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("signal = %v, want nil", sig)
	}
}
