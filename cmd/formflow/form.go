package main

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

// loadForm loads the form document and, when an OpenAPI document is
// configured, binds the sources that reference an operationId.
func (a *app) loadForm(ctx context.Context) (*model.FormConfig, error) {
	path, err := a.formPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if location := a.v.GetString("openapi"); location != "" {
		doc, err := config.LoadOpenAPI(ctx, location)
		if err != nil {
			return nil, err
		}
		if err := config.BindOpenAPI(cfg, doc); err != nil {
			return nil, err
		}
	}

	a.logger.Debug("form loaded",
		zap.String("form", path),
		zap.Int("sections", cfg.SectionCount()),
		zap.Int("sources", len(cfg.Sources)),
	)
	return cfg, nil
}

func (a *app) fetcher() options.Fetcher {
	opts := []options.HTTPOption{options.WithTimeout(a.v.GetDuration("timeout"))}
	if base := a.v.GetString("base-url"); base != "" {
		opts = append(opts, options.WithBaseURL(base))
	}
	return options.NewHTTPFetcher(opts...)
}

// transforms registers every `transforms` entry of the config file as an
// expression transform.
func (a *app) transforms() (*options.TransformRegistry, error) {
	registry := options.NewTransformRegistry()
	defs := a.v.GetStringMapString("transforms")
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := registry.RegisterExpr(name, defs[name]); err != nil {
			return nil, fmt.Errorf("transform %s: %w", name, err)
		}
	}
	return registry, nil
}
