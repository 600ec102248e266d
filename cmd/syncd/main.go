// Package main provides the NualaPOS sync daemon: it owns the Local Store,
// drains the sync queue against the remote service, and exposes a small
// localhost surface for the UI to query status and trigger syncs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nualapos/backend/internal/logging"
	"github.com/nualapos/backend/internal/remote"
	"github.com/nualapos/backend/internal/store"
	syncpkg "github.com/nualapos/backend/internal/sync"
	"github.com/nualapos/backend/internal/sync/queue"
	"github.com/nualapos/backend/internal/sync/scheduler"
)

// Version is set at build time.
var Version = "0.1.0"

// envSession is the fixed service identity the daemon syncs under.
// Authentication and tenant selection belong to collaborators outside the
// sync subsystem; the daemon only needs the resolved ids.
type envSession struct {
	userID string
	orgID  string
}

func (s envSession) CurrentUser() string         { return s.userID }
func (s envSession) CurrentOrganization() string { return s.orgID }

func main() {
	logging.Init(os.Stdout, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	logging.Info("NualaPOS sync daemon starting", map[string]any{"version": Version})

	dataDir := envOr("SYNCD_DATA_DIR", "./data")
	addr := envOr("SYNCD_ADDR", "localhost:8091")

	st, err := store.Open(dataDir)
	if err != nil {
		logging.Error("Failed to open local store", err, map[string]any{"data_dir": dataDir})
		os.Exit(1)
	}
	defer st.Close()

	client := remote.NewRESTClient(&remote.RESTConfig{
		BaseURL: envOr("SYNC_REMOTE_URL", "http://localhost:8090/v1"),
		APIKey:  os.Getenv("SYNC_API_KEY"),
	})

	q := queue.New(st)
	coord := syncpkg.NewCoordinator(st, client, q)

	session := envSession{
		userID: os.Getenv("SYNC_USER_ID"),
		orgID:  os.Getenv("SYNC_ORG_ID"),
	}

	sched := scheduler.New(coord, session)
	if secs, err := strconv.Atoi(os.Getenv("SYNC_INTERVAL_SECONDS")); err == nil && secs > 0 {
		sched.SetInterval(time.Duration(secs) * time.Second)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	h := newHandler(coord, q, sched, session)
	srv := &http.Server{Addr: addr, Handler: h.routes()}

	go func() {
		logging.Info("Sync daemon listening", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed", err, nil)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	logging.Info("Sync daemon shutting down", nil)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
