// cmd/web/main.go
//
// Taskgrid – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load and validate config; resolve vault: references when present.
//
//  4. Open the platform DB and log the grant count as an early sanity check.
//
//  5. Build the ACL: principal resolver → decision engine → guard.
//
//  6. Assemble the chi router: /metrics, the API surface, security headers,
//     and one principal resolution per request.
//
//  7. Run the HTTP server and the expired-grant sweeper under one errgroup;
//     SIGINT/SIGTERM drains both.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/taskgrid/taskgrid/internal/acl"
	"github.com/taskgrid/taskgrid/internal/config"
	"github.com/taskgrid/taskgrid/internal/database"
	"github.com/taskgrid/taskgrid/internal/logger"
	_ "github.com/taskgrid/taskgrid/internal/metrics" // register collectors
	"github.com/taskgrid/taskgrid/internal/middleware"
	"github.com/taskgrid/taskgrid/internal/server"
	"github.com/taskgrid/taskgrid/internal/session"
	"github.com/taskgrid/taskgrid/internal/sweeper"
	"github.com/taskgrid/taskgrid/internal/vault"
	"github.com/taskgrid/taskgrid/internal/web"
)

const serverEnvPath = "/usr/local/etc/taskgrid/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config (+ Vault secrets) ───────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}
	if cfg.NeedsVault() {
		vc, err := vault.New(ctx)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		if err := cfg.ResolveSecrets(ctx, vc); err != nil {
			logOut.Fatalf("resolve secrets: %v", err)
		}
	}

	//
	// ── 2.  Platform DB connect ────────────────────────────────────────
	//
	dsn := fmt.Sprintf(cfg.Database.DSN, cfg.Database.Password)
	db, err := database.Open(ctx, dsn)
	if err != nil {
		logOut.Fatalf("connect db: %v", err)
	}
	defer db.Close()

	var grants int
	_ = db.Get(&grants, `SELECT COUNT(*) FROM access_grant
	    WHERE expires_at IS NULL OR expires_at > NOW()`)
	logOut.Infow("db online", "live_grants", grants)

	//
	// ── 3.  ACL wiring ─────────────────────────────────────────────────
	//
	sessions := session.New(cfg.Auth.SessionKey,
		time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)
	resolver := acl.NewResolver(db, cfg.Auth.ServiceToken, sessions)
	guard := acl.NewGuard(acl.NewEngine(db), resolver)

	creatorRole, err := acl.ParseRole(cfg.Auth.DefaultGrantRole)
	if err != nil {
		logOut.Fatalf("default grant role: %v", err) // unreachable after validation
	}

	//
	// ── 4.  Router ─────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(acl.ResolvePrincipal(resolver))
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api/v1", web.New(db, guard, creatorRole).Routes())

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	//
	// ── 5.  Sweeper + HTTP server under one errgroup ───────────────────
	//
	sw, err := sweeper.New(db, cfg.Sweep.Schedule)
	if err != nil {
		logOut.Fatalf("sweeper: %v", err)
	}

	srv := server.New(cfg.HTTP.ListenAddr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sw.Start()
		<-gctx.Done()
		sw.Stop()

		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logOut.Fatalf("run: %v", err)
	}
	logOut.Infow("shutdown complete")
}
