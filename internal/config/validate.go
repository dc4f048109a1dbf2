package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the fields the given command mode depends on. Defaults
// cover most of the configuration; this catches the misconfigurations
// that would otherwise only surface mid-round.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "import", "watch", "serve":
		errs = append(errs, c.validatePipeline()...)
		if mode != "import" && c.Watch.IntervalSecs <= 0 {
			errs = append(errs, "watch.interval_secs must be > 0")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "admin":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	errs := c.validateStore()

	if c.Paths.Root == "" && c.Paths.Imports == "" {
		errs = append(errs, "paths.root is required")
	}
	if c.Planner.MinOverallConfidence < 0 || c.Planner.MinOverallConfidence > 1 {
		errs = append(errs, "planner.min_overall_confidence must be between 0 and 1")
	}
	if c.Planner.MinRegionConfidence < 0 || c.Planner.MinRegionConfidence > 1 {
		errs = append(errs, "planner.min_region_confidence must be between 0 and 1")
	}

	errs = append(errs, validateModel("vision", c.Vision)...)
	errs = append(errs, validateModel("clinical", c.Clinical)...)
	return errs
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "", "sqlite", "jsonfile":
		return nil
	default:
		return []string{fmt.Sprintf("store.driver must be sqlite or jsonfile, got %q", c.Store.Driver)}
	}
}

func validateModel(name string, mc ModelConfig) []string {
	var errs []string
	switch mc.Mode {
	case "", "remote":
		if mc.BaseURL == "" {
			errs = append(errs, name+".base_url is required in remote mode")
		}
	case "fixture":
		if mc.FixturesDir == "" {
			errs = append(errs, name+".fixtures_dir is required in fixture mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("%s.mode must be remote or fixture, got %q", name, mc.Mode))
	}
	return errs
}
