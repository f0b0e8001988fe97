package main

import (
	"log"
	"os"
	"time"

	"github.com/ethanbaker/recruiter/internal/agents/coordinator"
	"github.com/ethanbaker/recruiter/internal/agents/github"
	"github.com/ethanbaker/recruiter/internal/agents/linkedin"
	"github.com/ethanbaker/recruiter/internal/api"
	analysis_module "github.com/ethanbaker/recruiter/internal/api/modules/analysis"
	"github.com/ethanbaker/recruiter/internal/janitor"
	"github.com/ethanbaker/recruiter/internal/stores/profilecache"
	"github.com/ethanbaker/recruiter/internal/stores/state"
	"github.com/ethanbaker/recruiter/pkg/fetch"
	"github.com/ethanbaker/recruiter/pkg/utils"
	"github.com/ethanbaker/recruiter/pkg/workflow"
)

// Start the API server
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	databaseURL := cfg.Get("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("[MAIN]: DATABASE_URL not set in environment")
	}

	// Durable stores
	stateStore, err := state.NewStore(databaseURL, cfg.GetDuration("SESSION_TTL", 24*time.Hour))
	if err != nil {
		log.Fatal("[MAIN]: Failed to create state store: ", err)
	}
	defer stateStore.Close()

	cacheStore, err := profilecache.NewStore(databaseURL)
	if err != nil {
		log.Fatal("[MAIN]: Failed to create profile cache: ", err)
	}

	// Fetch agents
	resolver, err := coordinator.NewAgent(cfg)
	if err != nil {
		log.Fatal("[MAIN]: Failed to create coordinator agent: ", err)
	}

	githubAgent := github.NewAgent(
		github.NewClient(cfg),
		fetchOptions(cfg, "RATE_LIMIT_GITHUB", 5000),
		cfg.GetWithDefault("INCLUDE_METRICS", "true") == "true",
	)

	scraper, err := linkedin.NewHTTPScraper(cfg)
	if err != nil {
		log.Fatal("[MAIN]: Failed to create profile scraper: ", err)
	}

	linkedinAgent := linkedin.NewAgent(
		scraper,
		cacheStore,
		cfg.GetDuration("CACHE_TTL", time.Hour),
		fetchOptions(cfg, "RATE_LIMIT_LINKEDIN", 100),
	)

	// Workflow orchestration
	orchestrator := workflow.NewOrchestrator(
		stateStore,
		resolver,
		githubAgent,
		linkedinAgent,
		cfg.GetDuration("SESSION_TIMEOUT", 10*time.Minute),
	)

	// Expired-row garbage collection
	jan, err := janitor.Start(cfg.GetWithDefault("JANITOR_SCHEDULE", "@every 10m"), map[string]janitor.Purger{
		"state_records": stateStore,
		"cache_entries": cacheStore,
	})
	if err != nil {
		log.Fatal("[MAIN]: Failed to start janitor: ", err)
	}
	defer jan.Stop()

	// Start
	api.Start(cfg, analysis_module.NewService(orchestrator, stateStore))
}

// fetchOptions builds one fetch agent's tuning from the environment. quotaKey
// names the per-source quota variable; the remaining knobs are shared.
func fetchOptions(cfg *utils.Config, quotaKey string, defaultQuota int) fetch.Options {
	return fetch.Options{
		MaxAttempts: cfg.GetIntWithDefault("MAX_RETRIES", 3),
		BackoffBase: cfg.GetDuration("BACKOFF_BASE", time.Second),
		BackoffCap:  cfg.GetDuration("BACKOFF_CAP", 30*time.Second),
		Quota:       cfg.GetIntWithDefault(quotaKey, defaultQuota),
		Window:      cfg.GetDuration("RATE_LIMIT_WINDOW", time.Hour),
		Concurrency: cfg.GetIntWithDefault("BATCH_CONCURRENCY", 5),
	}
}
