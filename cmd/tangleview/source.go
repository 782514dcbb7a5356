package main

import (
	"github.com/utkarsh5026/tangleview/pkg/config"
	"github.com/utkarsh5026/tangleview/pkg/engine"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/render"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	source     string
	input      string
}

// load reads the config and applies the shared flags on top of it.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.source != "" {
		cfg.Source.URL = o.source
		cfg.Source.File = ""
	}
	if o.input != "" {
		cfg.Source.File = o.input
	}
	return cfg, nil
}

// newFetcher returns a file fetcher when a file is configured and an API
// fetcher otherwise.
func newFetcher(cfg *config.Config) tangle.Fetcher {
	if cfg.Source.File != "" {
		return tangle.NewFileFetcher(cfg.Source.File)
	}
	return newHTTPFetcher(cfg)
}

func newHTTPFetcher(cfg *config.Config) *tangle.HTTPFetcher {
	return tangle.NewHTTPFetcher(cfg.Source.URL,
		tangle.WithPerPage(cfg.Source.PerPage),
		tangle.WithTimeout(cfg.Source.Timeout.Duration),
	)
}

// newScene builds a scene from the view and physics settings.
func newScene(cfg *config.Config) *engine.Scene {
	var storeOpts []layout.StoreOption
	if seed := cfg.View.Seed; seed != 0 {
		storeOpts = append(storeOpts, layout.WithSeed(seed, seed^0x9e3779b97f4a7c15))
	}

	return engine.NewScene(cfg.Physics.Params(),
		engine.WithStoreOptions(storeOpts...),
		engine.WithRenderOptions(render.Options{
			Labels: cfg.View.Labels,
			HUD:    true,
			Legend: cfg.View.Legend,
		}),
		engine.WithCanvas(cfg.View.Width, cfg.View.Height, cfg.View.Scale),
	)
}
