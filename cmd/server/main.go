// Command main is the entry point for the Foodgram API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/observability"
	"foodgram/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "foodgram-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(srv.Start, srv.Shutdown, shutdownTracing, sigChan); err != nil {
		log.Fatal(err)
	}
}

// serve runs start until a signal arrives, then shuts the server down and
// flushes tracing. It returns only after both shutdown steps have finished.
func serve(start func() error, stop, flush func(context.Context) error, sigChan <-chan os.Signal) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := stop(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := flush(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := start(); err != nil {
		return err
	}
	<-done
	return nil
}
