package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skufu/symptomdx/internal/config"
	"github.com/Skufu/symptomdx/internal/corpus"
	"github.com/Skufu/symptomdx/internal/dataset"
	"github.com/Skufu/symptomdx/internal/diagnosis"
	"github.com/Skufu/symptomdx/internal/forest"
)

var errDBUnavailable = errors.New("database unavailable")

// setup trains the model before the server accepts traffic. Any failure is
// logged and yields an uninitialized service instead of stopping the process.
func setup(ctx context.Context, cfg *config.Config, db dataset.Querier) *diagnosis.Service {
	start := time.Now()
	model, err := train(ctx, cfg, db)
	if err != nil {
		slog.Error("setup failed, serving without a model", "err", err)
		return diagnosis.Uninitialized(err)
	}
	slog.Info("model ready",
		"diseases", len(model.Diseases()),
		"symptoms", model.Vocabulary().Len(),
		"features", model.Features(),
		"examples", model.Examples(),
		"trees", cfg.Forest.Trees,
		"took", time.Since(start).Round(time.Millisecond),
	)
	return diagnosis.NewService(model)
}

func train(ctx context.Context, cfg *config.Config, db dataset.Querier) (*diagnosis.Model, error) {
	src, err := newSource(cfg, db)
	if err != nil {
		return nil, err
	}
	table, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	c, err := corpus.Build(table)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}
	slog.Info("corpus built",
		"rows", c.Stats.Rows,
		"symptom_columns", c.Stats.SymptomColumns,
		"examples", c.Stats.ExamplesProduced,
		"rows_without_symptoms", c.Stats.NoSymptoms,
	)
	if c.Stats.MissingDisease > 0 {
		slog.Warn("skipped rows without a disease label", "rows", c.Stats.MissingDisease)
	}

	model, err := diagnosis.Train(ctx, c, forest.Options{
		Trees:    cfg.Forest.Trees,
		MaxDepth: cfg.Forest.MaxDepth,
		Seed:     cfg.Forest.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	return model, nil
}

func newSource(cfg *config.Config, db dataset.Querier) (dataset.Source, error) {
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		if db == nil {
			return nil, errDBUnavailable
		}
		return &dataset.PostgresSource{DB: db, Table: cfg.Dataset.Table}, nil
	case config.SourceCSV:
		return &dataset.CSVSource{Path: cfg.Dataset.Path, Encoding: cfg.Dataset.Encoding}, nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
}
