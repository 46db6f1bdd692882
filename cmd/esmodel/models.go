package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmodel/internal/config"
	"github.com/kailas-cloud/esmodel/internal/domain/schema"
	modeluc "github.com/kailas-cloud/esmodel/internal/usecase/model"
)

// registerModels resolves every configured model and creates the indexes
// marked create_on_start that do not exist yet.
func registerModels(ctx context.Context, reg *modeluc.Registry, models []config.ModelConfig, logger *zap.Logger) error {
	for _, mc := range models {
		s, err := schemaFor(mc)
		if err != nil {
			return err
		}
		svc := reg.Register(s)
		logger.Info("Model registered",
			zap.String("model", s.Name()),
			zap.String("index", s.Index()),
			zap.Int("fields", s.Len()),
		)
		if !mc.CreateOnStart {
			continue
		}

		exists, err := svc.IndexExists(ctx, "")
		if err != nil {
			return fmt.Errorf("model %q: %w", mc.Name, err)
		}
		if exists {
			continue
		}
		if err := svc.CreateMapping(ctx, modeluc.MappingRequest{Settings: mc.Settings}); err != nil {
			return fmt.Errorf("model %q: %w", mc.Name, err)
		}
		logger.Info("Index created", zap.String("index", s.Index()))
	}
	return nil
}

func schemaFor(mc config.ModelConfig) (schema.Schema, error) {
	s, err := schema.New(schema.Definition{
		Name:   mc.Name,
		Index:  mc.Index,
		Fields: fieldsFor(mc.Fields),
	})
	if err != nil {
		return schema.Schema{}, fmt.Errorf("model %q: %w", mc.Name, err)
	}
	return s, nil
}

func fieldsFor(in []config.FieldConfig) []schema.Field {
	if len(in) == 0 {
		return nil
	}
	out := make([]schema.Field, len(in))
	for i, f := range in {
		out[i] = schema.Field{
			Name:       f.Name,
			Type:       schema.Type(f.Type),
			Params:     f.Params,
			Properties: fieldsFor(f.Properties),
		}
	}
	return out
}
