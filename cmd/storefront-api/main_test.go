package main

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/upb/storefront-api/config"
	"github.com/upb/storefront-api/services"
)

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "create-admin"}, names)
}

func TestCreateAdminCommand_RequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"create-admin", "--email", "root@example.com"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestRunMigrate_RequiresPostgres(t *testing.T) {
	err := runMigrate(context.Background(), testConfig(), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate requires the postgres driver")
}

func TestCreateAdmin(t *testing.T) {
	t.Run("rejects memory storage", func(t *testing.T) {
		_, err := createAdmin(context.Background(), testConfig(), zaptest.NewLogger(t), services.SignupInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create-admin requires the postgres driver")
	})

	t.Run("validates input before connecting", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = config.DriverPostgres

		_, err := createAdmin(context.Background(), cfg, zaptest.NewLogger(t), services.SignupInput{
			Name: "Root", Email: "not-an-email", Phone: "5551234",
			Password: "secret-pass", ConfirmPassword: "secret-pass",
		})
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "failed to initialize dependencies")
	})
}

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, "127.0.0.1:0", srv.Addr)
	assert.Equal(t, cfg.Server.ReadTimeout, srv.ReadTimeout)
	assert.Equal(t, cfg.Server.WriteTimeout, srv.WriteTimeout)
	assert.Equal(t, 2*cfg.Server.ReadTimeout, srv.IdleTimeout)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newServer(testConfig(), http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, zaptest.NewLogger(t)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenFailure(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}

	err := serve(context.Background(), srv, time.Second, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server failed")
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret-that-is-long-enough-000000",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		Observability: config.ObservabilityConfig{LogLevel: "debug", LogFormat: "json"},
	}
}
