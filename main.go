package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"skillfolio/internal/api"
	"skillfolio/internal/catalog"
	"skillfolio/internal/db"
	"skillfolio/internal/llm"
	"skillfolio/internal/logger"
)

var version = "dev"

func main() {
	port := flag.Int("port", 8090, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path (default: skillfolio.db in working directory)")
	flag.Parse()

	logger.Banner(version)

	// Open SQLite database
	var database *db.DB
	var err error
	if *dbPath != "" {
		database, err = db.OpenPath(*dbPath)
	} else {
		database, err = db.Open()
	}
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	// Load config from SQLite
	cfg := database.LoadConfig()

	logger.Section("Catalog")
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			logger.Warn("Catalog", fmt.Sprintf("Load %s failed (%v), using built-in directions", cfg.CatalogPath, err))
		} else {
			cat = loaded
		}
	}
	logger.Stats("directions", cat.Size())

	var llmClient *llm.Client
	if cfg.LLMBaseURL != "" {
		llmClient = llm.NewClient(
			cfg.LLMBaseURL,
			os.Getenv("SKILLFOLIO_API_KEY"),
			cfg.LLMModel,
			time.Duration(cfg.ModelCacheMinutes)*time.Minute,
		)
		logger.Info("LLM", fmt.Sprintf("Provider %s, model %s", cfg.LLMBaseURL, cfg.LLMModel))
	} else {
		logger.Warn("LLM", "No provider configured, affinity analysis disabled")
	}

	srv := api.NewServer(cfg, cat, llmClient, database, version)

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
