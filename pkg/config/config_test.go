package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/model"
)

func TestLoadJSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	fromYAML, err := config.Load(filepath.Join("testdata", "onboarding.yaml"))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	fromJSON, err := config.Load(filepath.Join("testdata", "onboarding.json"))
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if diff := cmp.Diff(fromYAML, fromJSON); diff != "" {
		t.Fatalf("json and yaml documents differ (-yaml +json):\n%s", diff)
	}

	if got := fromYAML.SectionCount(); got != 3 {
		t.Fatalf("expected 3 sections, got %d", got)
	}
	state, ok := fromYAML.Field("state")
	if !ok {
		t.Fatalf("state field missing")
	}
	if !state.HasRemoteOptions() || state.Options.Source != "states" {
		t.Fatalf("state options not parsed: %+v", state.Options)
	}
	if diff := cmp.Diff(model.Conditions{{Field: "country", Value: "US"}}, state.ShowIf); diff != "" {
		t.Fatalf("single showIf not normalised (-want +got):\n%s", diff)
	}

	birthday, _ := fromYAML.Field("birthday")
	_, maxDate := birthday.Validation.DateBounds()
	if maxDate == nil || maxDate.Offset == nil || *maxDate.Offset != 0 {
		t.Fatalf("expected maxDate today, got %+v", maxDate)
	}

	shipping := fromYAML.Sections[1].Subsections[1]
	if got := len(shipping.ShowIf); got != 2 {
		t.Fatalf("expected two shipping conditions, got %d", got)
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "onboarding.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	fsys := fstest.MapFS{"forms/onboarding.yaml": {Data: data}}

	cfg, err := config.LoadFS(fsys, "forms/onboarding.yaml")
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if cfg.Title != "Customer onboarding" {
		t.Fatalf("unexpected title %q", cfg.Title)
	}
}

func TestLoadBytesRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	_, err := config.LoadBytes([]byte("  \n"), "empty.yaml")
	if !errors.Is(err, config.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestValidateReportsEveryIssue(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join("testdata", "invalid.yaml"))
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	messages := make([]string, len(verr.Issues))
	for i, issue := range verr.Issues {
		messages[i] = issue.String()
	}
	joined := strings.Join(messages, "\n")

	expected := []string{
		`sections.one.prefetch: unknown source "missing"`,
		`fields.a: duplicate field id`,
		`invalid pattern`,
		`compare: unknown field "ghost"`,
		`unknown source "nowhere"`,
		`unknown field "phantom"`,
		`sections.one.fields.c: table field requires columns`,
		`sources.bad: source requires url, endpoint or operationId`,
		`sources.bad.method: unsupported method "FETCH"`,
		`sources.bad.params.q: placeholder references unknown field "unknown"`,
	}
	for _, want := range expected {
		if !strings.Contains(joined, want) {
			t.Errorf("missing issue %q in:\n%s", want, joined)
		}
	}
}

func TestValidateAllowsSiblingColumnCompare(t *testing.T) {
	t.Parallel()

	doc := `
title: Table
sections:
  - id: one
    title: One
    elements:
      - id: ranges
        type: table
        columns:
          - id: low
            type: number
          - id: high
            type: number
            validation:
              compare: {field: low, operator: gt}
`
	if _, err := config.LoadBytes([]byte(doc), "table.yaml"); err != nil {
		t.Fatalf("expected sibling compare to validate, got %v", err)
	}
}

func TestValidateRequiresSections(t *testing.T) {
	t.Parallel()

	err := config.Validate(&model.FormConfig{Title: "empty"})
	if err == nil || !strings.Contains(err.Error(), "at least one section is required") {
		t.Fatalf("expected missing sections issue, got %v", err)
	}
}

func TestBindOpenAPI(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doc, err := config.LoadOpenAPI(ctx, filepath.Join("testdata", "lookup_api.yaml"))
	if err != nil {
		t.Fatalf("load openapi: %v", err)
	}

	cfg := &model.FormConfig{
		Sections: []model.Section{{ID: "one", Elements: []model.Field{{ID: "country", Type: model.FieldTypeText}}}},
		Sources: map[string]model.RemoteSource{
			"countries": {OperationID: "listCountries"},
			"states":    {OperationID: "searchStates", URL: "http://localhost/states"},
			"plain":     {URL: "http://localhost/plain"},
		},
	}
	if err := config.BindOpenAPI(cfg, doc); err != nil {
		t.Fatalf("bind: %v", err)
	}

	want := map[string]model.RemoteSource{
		"countries": {OperationID: "listCountries", URL: "https://api.example.com/v1/countries", Method: "GET"},
		"states":    {OperationID: "searchStates", URL: "http://localhost/states", Method: "POST"},
		"plain":     {URL: "http://localhost/plain"},
	}
	if diff := cmp.Diff(want, cfg.Sources); diff != "" {
		t.Fatalf("bound sources mismatch (-want +got):\n%s", diff)
	}

	cfg.Sources["ghost"] = model.RemoteSource{OperationID: "missingOp"}
	var verr *config.ValidationError
	if err := config.BindOpenAPI(cfg, doc); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown operation, got %v", err)
	}
}
