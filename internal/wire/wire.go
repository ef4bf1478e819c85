// Package wire provides dependency injection for the vigil application.
// It builds the singleton store and services with lazy initialization.
package wire

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/vigil/internal/app"
	"github.com/example/vigil/internal/clock"
	"github.com/example/vigil/internal/config"
	"github.com/example/vigil/internal/store"
)

var (
	cfg        *config.Config
	stateStore *store.StateStore
	actorSvc   *app.ActorService
	pursuitSvc *app.PursuitService
	once       sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initAll)
	return cfg
}

// Store returns the singleton StateStore instance.
func Store() *store.StateStore {
	once.Do(initAll)
	return stateStore
}

// ActorService returns the singleton ActorService instance.
func ActorService() *app.ActorService {
	once.Do(initAll)
	return actorSvc
}

// PursuitService returns the singleton PursuitService instance.
func PursuitService() *app.PursuitService {
	once.Do(initAll)
	return pursuitSvc
}

// initAll initializes the container. Called once via sync.Once.
// Startup failures abort the process; the engine must not run against an
// unopened or half-migrated store.
func initAll() {
	var err error
	cfg, err = config.Load(configPath())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	clk := clock.System{}
	stateStore, err = store.Open(store.Options{
		Path:             cfg.DatabasePath(),
		Workers:          cfg.Workers,
		PursuitRetention: cfg.PursuitRetention,
		CacheTTL:         cfg.CacheTTL,
		Clock:            clk,
	})
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}

	actorSvc = app.NewActorService(stateStore, clk, cfg.DutyKillPolicy)
	pursuitSvc = app.NewPursuitService(stateStore, clk, cfg.PursuitDuration)
}

// configPath resolves the config file location: VIGIL_CONFIG if set,
// otherwise ~/.vigil/config.yaml.
func configPath() string {
	if p := os.Getenv("VIGIL_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".vigil", "config.yaml")
}
