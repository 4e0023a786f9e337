// Package integration exercises the registry through its public surfaces:
// a full stack over filesystem storage serving real HTTP, driven by the Go
// SDK. Package tests cover the pieces; these cover the seams.
package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/FCM-Registry/internal/application/bootstrap"
	"github.com/turtacn/FCM-Registry/internal/application/registry"
	"github.com/turtacn/FCM-Registry/internal/config"
	httpapi "github.com/turtacn/FCM-Registry/internal/interfaces/http"
	"github.com/turtacn/FCM-Registry/internal/interfaces/http/handlers"
	"github.com/turtacn/FCM-Registry/internal/testutil"
	"github.com/turtacn/FCM-Registry/pkg/client"
)

// env is one running registry deployment: stack, open registry, HTTP
// server, and an SDK client pointed at it.
type env struct {
	Stack    *bootstrap.Stack
	Registry *registry.Registry
	Server   *httptest.Server
	SDK      *client.Client

	// CSVPath is the live source table; tests overwrite it to simulate a
	// regulation update before triggering a refresh.
	CSVPath string
}

// defaultRows is a three-row source table: one substance listed in two
// tables and a second substance with no limits.
func defaultRows() [][]string {
	return [][]string{
		testutil.Row("A1", "FCA0071", "乙醛", "75-07-0", "PE:0.5", "0.05(T:SML)", ""),
		testutil.Row("A2", "FCA0071", "乙醛", "75-07-0", "涂料", "", ""),
		testutil.Row("A1", "FCA0163", "甲醛", "50-00-0", "", "", ""),
	}
}

// newEnv builds a stack on filesystem storage with the in-process cache and
// enrichment off, opens the registry (cold build from rows), and serves it
// over a test HTTP server.
func newEnv(t *testing.T, rows ...[]string) *env {
	t.Helper()

	csvPath := filepath.Join(t.TempDir(), "GB9685_2016.csv")
	testutil.WriteCSVFile(t, csvPath, rows...)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.Backend = "fs"
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "store")
	cfg.Cache.Backend = "memory"
	cfg.Source.CSVPath = csvPath
	cfg.Enrichment.Enabled = false

	stack, err := bootstrap.Build(cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })

	reg, err := stack.OpenRegistry(context.Background())
	require.NoError(t, err)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Substances: handlers.NewSubstanceHandler(reg, nil),
		Health: handlers.NewHealthHandler("integration",
			nil,
			handlers.NewChecker("storage", stack.Repository.Ping),
		),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	sdk, err := client.NewClient(server.URL)
	require.NoError(t, err)

	return &env{
		Stack:    stack,
		Registry: reg,
		Server:   server,
		SDK:      sdk,
		CSVPath:  csvPath,
	}
}
