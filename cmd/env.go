package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/config"
	"github.com/operator-ingest/wardround-cli/internal/importer"
	"github.com/operator-ingest/wardround-cli/internal/paths"
	"github.com/operator-ingest/wardround-cli/internal/planner"
	"github.com/operator-ingest/wardround-cli/internal/resilience"
	"github.com/operator-ingest/wardround-cli/internal/store"
	"github.com/operator-ingest/wardround-cli/pkg/clinical"
	"github.com/operator-ingest/wardround-cli/pkg/modelchat"
	"github.com/operator-ingest/wardround-cli/pkg/vision"
)

// env wires the shared dependencies for the daemon commands.
type env struct {
	Paths    *paths.Resolver
	Store    store.Store
	Importer *importer.Importer
}

// initEnv resolves paths, opens the store, and builds the importer with
// the configured model clients.
func initEnv(ctx context.Context) (*env, error) {
	resolver := paths.NewResolver(cfg.Paths)
	if err := resolver.EnsureBaseFolders(); err != nil {
		return nil, err
	}

	st, err := openStore(resolver)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	visionClient, err := newVisionClient(cfg.Vision)
	if err != nil {
		st.Close()
		return nil, err
	}
	clinicalClient, err := newClinicalClient(cfg.Clinical)
	if err != nil {
		st.Close()
		return nil, err
	}

	im := importer.New(resolver, st, visionClient, clinicalClient, planner.Thresholds{
		MinOverallConfidence: cfg.Planner.MinOverallConfidence,
		MinRegionConfidence:  cfg.Planner.MinRegionConfidence,
		CriticalRegions:      cfg.Planner.CriticalRegions,
	})

	return &env{Paths: resolver, Store: st, Importer: im}, nil
}

func (e *env) Close() {
	e.Store.Close()
}

func openStore(resolver *paths.Resolver) (store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		switch cfg.Store.Driver {
		case "jsonfile":
			path = resolver.StateFile()
		default:
			path = filepath.Join(resolver.LogsDir(), "ward_round_state.db")
		}
	}
	return store.New(cfg.Store.Driver, path)
}

func newChatClient(mc config.ModelConfig) modelchat.Client {
	return modelchat.NewClient(mc.BaseURL, mc.Key,
		modelchat.WithModel(mc.Model),
		modelchat.WithRateLimit(mc.RatePerSec),
		modelchat.WithTimeout(time.Duration(mc.TimeoutSecs)*time.Second),
		modelchat.WithRetry(resilience.Policy{MaxAttempts: mc.MaxAttempts}),
	)
}

func newVisionClient(mc config.ModelConfig) (vision.Client, error) {
	switch mc.Mode {
	case "remote", "":
		return vision.NewRemote(newChatClient(mc)), nil
	case "fixture":
		if mc.FixturesDir == "" {
			return nil, eris.New("vision: fixture mode requires fixtures_dir")
		}
		return vision.NewFixture(mc.FixturesDir), nil
	default:
		return nil, eris.Errorf("vision: unknown mode %q", mc.Mode)
	}
}

func newClinicalClient(mc config.ModelConfig) (clinical.Client, error) {
	switch mc.Mode {
	case "remote", "":
		return clinical.NewRemote(newChatClient(mc)), nil
	case "fixture":
		if mc.FixturesDir == "" {
			return nil, eris.New("clinical: fixture mode requires fixtures_dir")
		}
		return clinical.NewFixture(mc.FixturesDir), nil
	default:
		return nil, eris.Errorf("clinical: unknown mode %q", mc.Mode)
	}
}
