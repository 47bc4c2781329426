// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/MeridianIntel/MeridianDesk/pkg/logging"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/catalog"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/pipeline"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/routes"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/store"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/telemetry"
	"github.com/MeridianIntel/MeridianDesk/services/llm"
)

const serviceName = "compiler-service"

// initTracer wires the OTLP trace exporter. Tracing is optional: when no
// collector endpoint is configured the service runs without it.
func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newRunStore selects the persistence backend from MERIDIAN_STORE:
// "file" (default) or "badger".
func newRunStore() (store.RunStore, error) {
	dir := os.Getenv("MERIDIAN_STORE_DIR")
	if dir == "" {
		dir = "data/runs"
	}
	switch strings.ToLower(os.Getenv("MERIDIAN_STORE")) {
	case "", "file":
		slog.Info("Using file-backed run store", "dir", dir)
		return store.NewFileStore(dir)
	case "badger":
		slog.Info("Using Badger-backed run store", "dir", dir)
		return store.OpenBadgerStore(store.BadgerConfig{Path: dir, SyncWrites: true})
	default:
		slog.Warn("Unknown MERIDIAN_STORE value, defaulting to file", "value", os.Getenv("MERIDIAN_STORE"))
		return store.NewFileStore(dir)
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("Ignoring non-numeric env value", "key", key, "value", v)
	}
	return def
}

func main() {
	port := os.Getenv("MERIDIAN_PORT")
	if port == "" {
		port = "12340"
	}

	closeLogs, err := logging.Setup("compiler")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer closeLogs()

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	meterProvider, err := telemetry.NewMeterProvider()
	if err != nil {
		log.Fatalf("failed to setup metrics: %v", err)
	}
	otel.SetMeterProvider(meterProvider)
	metrics, err := telemetry.NewMetrics(meterProvider.Meter("meridian.compiler"))
	if err != nil {
		log.Fatalf("failed to create metric instruments: %v", err)
	}

	manifestPath := os.Getenv("MERIDIAN_PACKS_FILE")
	if manifestPath == "" {
		manifestPath = "configs/packs.yaml"
	}
	docRoots := []string{"data/docs"}
	if roots := os.Getenv("MERIDIAN_DOC_ROOTS"); roots != "" {
		docRoots = strings.Split(roots, string(os.PathListSeparator))
	}
	cat, err := catalog.Load(manifestPath, docRoots)
	if err != nil {
		log.Fatalf("failed to load pack catalog: %v", err)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := cat.Watch(watchCtx); err != nil {
			slog.Warn("Manifest watcher stopped", "error", err)
		}
	}()

	st, err := newRunStore()
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}

	llmClient, err := llm.NewClientFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize LLM client: %v", err)
	}
	slog.Info("Inference backend ready", "model", llmClient.Model())

	prompt, err := pipeline.LoadPrompt()
	if err != nil {
		log.Fatalf("failed to load prompt: %v", err)
	}

	inferTimeout := 2 * time.Minute
	if v := os.Getenv("MERIDIAN_INFER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			inferTimeout = d
		} else {
			slog.Warn("Ignoring invalid MERIDIAN_INFER_TIMEOUT", "value", v)
		}
	}

	orch := pipeline.New(cat, st, llmClient, prompt,
		pipeline.WithMetrics(metrics),
		pipeline.WithInferTimeout(inferTimeout))

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	routes.SetupRoutes(router, routes.Options{
		Catalog:   cat,
		Store:     st,
		Compiler:  orch,
		APIKey:    os.Getenv("MERIDIAN_API_KEY"),
		RateRPS:   envFloat("MERIDIAN_RATE_RPS", 5),
		RateBurst: int(envFloat("MERIDIAN_RATE_BURST", 10)),
	})

	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		slog.Info("Starting the compiler server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Error("Run store close failed", "error", err)
		}
	}
}
