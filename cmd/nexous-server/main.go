package main

import (
	"context"
	"log"
	"os"

	"github.com/nexous-ai/nexous/internal/model"
	"github.com/nexous-ai/nexous/internal/provider"
	"github.com/nexous-ai/nexous/internal/provider/anthropic"
	"github.com/nexous-ai/nexous/internal/provider/gemini"
	"github.com/nexous-ai/nexous/internal/provider/openai"
	"github.com/nexous-ai/nexous/internal/runstore"
)

func main() {
	ctx := context.Background()
	addr := os.Getenv("NEXOUS_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	traceDir := envOrDefault("NEXOUS_TRACE_DIR", "traces")
	presetDir := envOrDefault("NEXOUS_PRESET_DIR", "presets")
	baseDir := envOrDefault("NEXOUS_BASE_DIR", ".")

	registry, err := buildProviderRegistry(ctx)
	if err != nil {
		log.Fatalf("nexous-server: %v", err)
	}

	var runStore *runstore.Store
	if dsn := os.Getenv("NEXOUS_DATABASE_URL"); dsn != "" {
		runStore, err = runstore.Open(ctx, dsn)
		if err != nil {
			log.Fatalf("nexous-server: %v", err)
		}
		defer runStore.Close()
		log.Printf("nexous-server: run index enabled")
	}

	srv := NewServer(traceDir, presetDir, baseDir, registry, runStore)
	log.Printf("nexous-server: listening on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("nexous-server: %v", err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func buildProviderRegistry(ctx context.Context) (*provider.Registry, error) {
	var clients []model.Client
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		clients = append(clients, openai.New(key))
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		clients = append(clients, anthropic.New(key))
	}
	geminiKey := os.Getenv("GOOGLE_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if geminiKey != "" {
		client, err := gemini.New(ctx, geminiKey)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return provider.NewRegistry(clients...), nil
}
