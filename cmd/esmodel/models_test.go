package main

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmodel/internal/config"
	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/engine/embedded"
	modeluc "github.com/kailas-cloud/esmodel/internal/usecase/model"
)

func TestSchemaFor(t *testing.T) {
	s, err := schemaFor(config.ModelConfig{
		Name: "PlayLines",
		Fields: []config.FieldConfig{
			{Name: "speechNumber", Type: "integer"},
			{Name: "meta", Type: "object", Properties: []config.FieldConfig{
				{Name: "actID", Type: "keyword"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("schemaFor: %v", err)
	}
	if s.Index() != "play_lines" {
		t.Errorf("index = %q", s.Index())
	}
	props := s.Properties()
	if props["speech_number"].Type != "integer" {
		t.Errorf("props = %+v", props)
	}
	if props["meta"].Properties["act_id"].Type != "keyword" {
		t.Errorf("meta = %+v", props["meta"])
	}

	if _, err := schemaFor(config.ModelConfig{}); !errors.Is(err, domain.ErrInvalidDefinition) {
		t.Errorf("empty model err = %v", err)
	}
}

func TestRegisterModels(t *testing.T) {
	ctx := context.Background()
	eng := embedded.New()
	defer func() { _ = eng.Close() }()
	reg := modeluc.NewRegistry(eng, false)

	models := []config.ModelConfig{
		{Name: "Orders", CreateOnStart: true, Settings: map[string]any{"number_of_shards": 1, "number_of_replicas": 0},
			Fields: []config.FieldConfig{{Name: "client", Type: "text"}}},
		{Name: "Audit", Fields: []config.FieldConfig{{Name: "at", Type: "date"}}},
	}
	if err := registerModels(ctx, reg, models, zap.NewNop()); err != nil {
		t.Fatalf("registerModels: %v", err)
	}
	if got := reg.Indexes(); len(got) != 2 || got[0] != "audit" || got[1] != "orders" {
		t.Errorf("indexes = %v", got)
	}
	if ok, _ := eng.IndexExists(ctx, "orders"); !ok {
		t.Error("orders not created")
	}
	if ok, _ := eng.IndexExists(ctx, "audit"); ok {
		t.Error("audit created without create_on_start")
	}

	// existing indexes are left alone
	if err := registerModels(ctx, reg, models[:1], zap.NewNop()); err != nil {
		t.Fatalf("second registerModels: %v", err)
	}

	bad := []config.ModelConfig{{Name: "Broken", CreateOnStart: true,
		Fields: []config.FieldConfig{{Name: "x", Type: "frobnicate"}}}}
	if err := registerModels(ctx, reg, bad, zap.NewNop()); !errors.Is(err, domain.ErrSchema) {
		t.Errorf("bad model err = %v, want ErrSchema", err)
	}
}
