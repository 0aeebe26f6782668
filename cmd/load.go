package cmd

import (
	"fmt"

	"github.com/benn-herrera/xbind/config"
	"github.com/benn-herrera/xbind/loader"
	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/validate"
)

// project is a loaded and validated description with its configuration.
type project struct {
	Config *config.Config
	API    *model.API
	Naming model.Naming
}

// loadProject finds the configuration, loads the description with the
// configured well-known types and runs semantic validation.
func loadProject(descriptionPath string) (*project, error) {
	cfg, err := config.Find(configPath, descriptionPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Path != "" {
		log.Infof("using config %s", cfg.Path)
	}

	version := cfg.APIVersion
	if apiVersion != "" {
		version = apiVersion
	}
	api, err := loader.LoadDescription(descriptionPath, loader.Options{
		Version:   version,
		WellKnown: cfg.WellKnown(),
	})
	if err != nil {
		return nil, fmt.Errorf("loading API description: %w", err)
	}
	log.Debugf("API version %s: %d module(s), %d class(es)", api.Version, len(api.Modules), len(api.Classes()))

	naming := cfg.ModelNaming()
	if result := validate.Validate(api, naming); !result.IsValid() {
		return nil, fmt.Errorf("validation failed:\n%w", result.Err())
	}
	return &project{Config: cfg, API: api, Naming: naming}, nil
}
