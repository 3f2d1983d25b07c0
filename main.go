// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/K-OOK/kook-backend/config"
	"github.com/K-OOK/kook-backend/llm"
	"github.com/K-OOK/kook-backend/observability"
	"github.com/K-OOK/kook-backend/retrieval"
	"github.com/K-OOK/kook-backend/routes"
	"github.com/K-OOK/kook-backend/services"
	"github.com/K-OOK/kook-backend/store"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("kook-backend")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	// --- Init the tracer ---
	if cfg.Otel.Enabled {
		cleanup, err := initTracer(cfg.Otel.Endpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	}

	observability.InitMetrics()

	// Shared immutable AWS config. Per-attempt Bedrock clients are built
	// from it by the factory; credential resolution happens at signing
	// time, so refreshed credentials are picked up without reloading.
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		log.Fatalf("FATAL: failed to load AWS configuration: %v", err)
	}

	var retriever retrieval.Retriever
	if cfg.AWS.KnowledgeBaseID != "" {
		retriever = retrieval.NewKnowledgeBaseRetriever(
			bedrockagentruntime.NewFromConfig(awsCfg),
			cfg.AWS.KnowledgeBaseID,
			int32(cfg.Pipeline.RetrievalTopK),
		)
		slog.Info("Knowledge base retrieval enabled", "knowledgeBaseId", cfg.AWS.KnowledgeBaseID)
	} else {
		slog.Warn("KNOWLEDGE_BASE_ID not set. Recipes will be generated without retrieval context.")
	}

	factory := llm.NewBedrockClientFactory(awsCfg, cfg.AWS.ModelID)
	recipeService := services.NewRecipeService(factory, retriever, services.RecipeServiceConfig{
		MaxAttempts:          cfg.Pipeline.MaxAttempts,
		RetryBackoff:         cfg.Pipeline.RetryBackoff,
		RequestTimeout:       cfg.Pipeline.RequestTimeout,
		MaxConcurrentStreams: cfg.Pipeline.MaxConcurrentStreams,
	})

	trendingStore, err := store.Open(cfg.Trending.DSN)
	if err != nil {
		log.Fatalf("FATAL: failed to open trending database: %v", err)
	}
	defer trendingStore.Close()

	router := gin.Default()
	router.Use(otelgin.Middleware("kook-backend"))

	routes.SetupRoutes(router, recipeService, trendingStore)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Println("Starting the kook-backend server on", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
