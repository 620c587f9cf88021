package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/harbour-data/dredge.report/internal/api"
	"github.com/harbour-data/dredge.report/internal/config"
	"github.com/harbour-data/dredge.report/internal/session"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "Optional pass configuration JSON file")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyPassConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadPassConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	sess := session.New(cfg)
	if err := sess.Recompute(); err != nil {
		log.Fatalf("failed to initialize session: %v", err)
	}

	server := api.NewServer(sess)
	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(server.ServeMux()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s (session %s)", *listen, sess.ID())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
