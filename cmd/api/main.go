package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"crewbase.org/internal/comment"
	"crewbase.org/internal/httpapi"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/store/pg"
	"crewbase.org/internal/sweeper"
	"crewbase.org/internal/team"
)

var (
	version = "0.3.1"
	commit  = "unknown"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("CREWBASE_PG_DSN")
	if dsn == "" {
		log.Fatal("CREWBASE_PG_DSN is required")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	var tokenOpts []identity.TokenOption
	if ttl := durationEnv("CREWBASE_ACCESS_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, identity.WithAccessTTL(ttl))
	}
	if ttl := durationEnv("CREWBASE_REFRESH_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, identity.WithRefreshTTL(ttl))
	}
	tokens, err := identity.NewTokenService(
		store.RefreshTokens(),
		os.Getenv("CREWBASE_ACCESS_SECRET"),
		os.Getenv("CREWBASE_REFRESH_SECRET"),
		tokenOpts...,
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	idSvc, err := identity.NewService(store.Users(), tokens)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}
	teamSvc, err := team.NewService(store.Teams(), store.Memberships(), store.Users())
	if err != nil {
		log.Fatalf("team service: %v", err)
	}
	commentSvc, err := comment.NewService(store.Comments(), teamSvc)
	if err != nil {
		log.Fatalf("comment service: %v", err)
	}

	schedule := os.Getenv("CREWBASE_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	var sweepOpts []sweeper.Option
	if days := intEnv("CREWBASE_RETENTION_DAYS"); days > 0 {
		sweepOpts = append(sweepOpts, sweeper.WithRetention(time.Duration(days)*24*time.Hour))
	}
	sweep, err := sweeper.New(schedule, map[string]sweeper.TombstonePurger{
		"teams":            store.Teams(),
		"team_memberships": store.Memberships(),
		"comments":         store.Comments(),
	}, store.RefreshTokens(), sweepOpts...)
	if err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	if err := sweep.Start(); err != nil {
		log.Fatalf("sweeper start: %v", err)
	}

	api := httpapi.New(idSvc, teamSvc, commentSvc, httpapi.ReadyProbe{DB: store.DB()}, httpapi.Config{
		Version: version,
	})

	addr := os.Getenv("CREWBASE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting crewbase-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	sweep.Stop()
	log.Println("Stopped")
}

func durationEnv(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s: invalid duration %q", key, v)
	}
	return d
}

func intEnv(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s: invalid integer %q", key, v)
	}
	return n
}
