package options_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

func boolPtr(v bool) *bool { return &v }

type countingFetcher struct {
	mu       sync.Mutex
	calls    int
	requests []options.Request
	respond  func(call int, req options.Request) (any, error)
}

func (f *countingFetcher) Fetch(_ context.Context, req options.Request) (any, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(call, req)
}

func (f *countingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func statesConfig(cache *bool) *model.FormConfig {
	return &model.FormConfig{
		Sections: []model.Section{{ID: "address", Elements: []model.Field{
			{ID: "country", Type: model.FieldTypeText},
			{ID: "state", Type: model.FieldTypeSelect, Options: &model.OptionsSpec{Source: "states"}},
		}}},
		Sources: map[string]model.RemoteSource{
			"states": {URL: "https://api.example.com/states", Params: map[string]string{"country": "{country}"}, Cache: cache},
		},
	}
}

func TestRemoteFieldReportsLoadingUntilResolved(t *testing.T) {
	t.Parallel()

	cfg := statesConfig(nil)
	fetcher := &countingFetcher{respond: func(int, options.Request) (any, error) {
		return []any{map[string]any{"value": "CA", "label": "California"}}, nil
	}}
	resolver := options.NewResolver(cfg, options.WithFetcher(fetcher))
	field, _ := cfg.Field("state")

	view := resolver.FieldOptions(field)
	if !view.Loading || view.Status != options.StatusIdle {
		t.Fatalf("expected idle loading view, got %+v", view)
	}
	if _, ok := resolver.Lookup("states"); ok {
		t.Fatalf("expected no cache entry before resolution")
	}

	got, err := resolver.Resolve(context.Background(), "states", model.Answers{"country": "US"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []model.Option{{Value: "CA", Label: "California"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolve mismatch (-want +got):\n%s", diff)
	}

	cached, ok := resolver.Lookup("states")
	if !ok {
		t.Fatalf("expected cache entry after resolution")
	}
	if diff := cmp.Diff(want, cached); diff != "" {
		t.Fatalf("cache mismatch (-want +got):\n%s", diff)
	}

	view = resolver.FieldOptions(field)
	if view.Loading || view.Status != options.StatusResolved {
		t.Fatalf("expected resolved view, got %+v", view)
	}
	if fetcher.requests[0].Params["country"] != "US" {
		t.Fatalf("placeholder not substituted: %+v", fetcher.requests[0].Params)
	}
}

func TestResolveUsesCacheUnlessDisabled(t *testing.T) {
	t.Parallel()

	respond := func(call int, _ options.Request) (any, error) {
		return []any{map[string]any{"value": "v", "label": "call"}}, nil
	}

	cached := &countingFetcher{respond: respond}
	resolver := options.NewResolver(statesConfig(nil), options.WithFetcher(cached))
	for i := 0; i < 3; i++ {
		if _, err := resolver.Resolve(context.Background(), "states", nil); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if cached.Calls() != 1 {
		t.Fatalf("expected one fetch for cached source, got %d", cached.Calls())
	}

	uncached := &countingFetcher{respond: respond}
	resolver = options.NewResolver(statesConfig(boolPtr(false)), options.WithFetcher(uncached))
	for i := 0; i < 3; i++ {
		if _, err := resolver.Resolve(context.Background(), "states", nil); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if uncached.Calls() != 3 {
		t.Fatalf("expected a fetch per access, got %d", uncached.Calls())
	}
}

func TestUncachedSourceReportsResolvedState(t *testing.T) {
	t.Parallel()

	cfg := statesConfig(boolPtr(false))
	fetcher := &countingFetcher{respond: func(call int, _ options.Request) (any, error) {
		if call == 1 {
			return []any{map[string]any{"value": "CA", "label": "California"}}, nil
		}
		return []any{map[string]any{"value": "NY", "label": "New York"}}, nil
	}}
	resolver := options.NewResolver(cfg, options.WithFetcher(fetcher))
	field, _ := cfg.Field("state")

	if state := resolver.State("states"); state.Status != options.StatusIdle || state.Loaded {
		t.Fatalf("expected idle entry before resolution, got %+v", state)
	}
	if view := resolver.FieldOptions(field); !view.Loading {
		t.Fatalf("expected loading view before resolution, got %+v", view)
	}

	if _, err := resolver.ResolveField(context.Background(), field, model.Answers{"country": "US"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	state := resolver.State("states")
	if state.Status != options.StatusResolved || !state.Loaded {
		t.Fatalf("expected resolved entry, got %+v", state)
	}
	view := resolver.FieldOptions(field)
	if view.Loading || view.Status != options.StatusResolved {
		t.Fatalf("expected resolved view, got %+v", view)
	}
	if diff := cmp.Diff([]model.Option{{Value: "CA", Label: "California"}}, view.Options); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}

	got, err := resolver.ResolveField(context.Background(), field, model.Answers{"country": "US"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fetcher.Calls() != 2 {
		t.Fatalf("expected uncached source to refetch, got %d calls", fetcher.Calls())
	}
	if diff := cmp.Diff([]model.Option{{Value: "NY", Label: "New York"}}, got); diff != "" {
		t.Fatalf("refetch mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedRefreshKeepsPriorEntry(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fetcher := &countingFetcher{respond: func(call int, _ options.Request) (any, error) {
		if call == 1 {
			return []any{map[string]any{"value": "CA", "label": "California"}}, nil
		}
		return nil, boom
	}}
	resolver := options.NewResolver(statesConfig(nil), options.WithFetcher(fetcher))
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, "states", nil); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	_, err := resolver.Refresh(ctx, "states", nil)
	var rerr *options.ResolveError
	if !errors.As(err, &rerr) || !errors.Is(err, boom) || rerr.Source != "states" {
		t.Fatalf("expected wrapped ResolveError, got %v", err)
	}

	state := resolver.State("states")
	if state.Status != options.StatusFailed {
		t.Fatalf("expected failed status, got %s", state.Status)
	}
	cached, ok := resolver.Lookup("states")
	if !ok || len(cached) != 1 || cached[0].Value != "CA" {
		t.Fatalf("expected stale entry to survive, got %v (%v)", cached, ok)
	}
}

func TestFailedFirstResolutionIsNotLoading(t *testing.T) {
	t.Parallel()

	cfg := statesConfig(nil)
	fetcher := options.FetcherFunc(func(context.Context, options.Request) (any, error) {
		return nil, errors.New("offline")
	})
	resolver := options.NewResolver(cfg, options.WithFetcher(fetcher))
	if _, err := resolver.Resolve(context.Background(), "states", nil); err == nil {
		t.Fatalf("expected error")
	}
	field, _ := cfg.Field("state")
	view := resolver.FieldOptions(field)
	if view.Loading || view.Status != options.StatusFailed || view.Err == nil {
		t.Fatalf("expected failed view, got %+v", view)
	}
}

func TestResolveUnknownSourceAndMissingFetcher(t *testing.T) {
	t.Parallel()

	resolver := options.NewResolver(statesConfig(nil))
	if _, err := resolver.Resolve(context.Background(), "nope", nil); !errors.Is(err, options.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "states", nil); !errors.Is(err, options.ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", err)
	}
}

func TestInlineOptionsBypassResolver(t *testing.T) {
	t.Parallel()

	resolver := options.NewResolver(&model.FormConfig{})
	field := model.Field{ID: "color", Type: model.FieldTypeRadio, Options: &model.OptionsSpec{Inline: []model.Option{{Value: "r", Label: "Red"}}}}

	view := resolver.FieldOptions(field)
	if view.Loading || len(view.Options) != 1 {
		t.Fatalf("unexpected inline view %+v", view)
	}
	got, err := resolver.ResolveField(context.Background(), field, nil)
	if err != nil || len(got) != 1 || got[0].Label != "Red" {
		t.Fatalf("unexpected inline resolution %v (%v)", got, err)
	}
}

func TestPrefetchLogsFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	cfg := statesConfig(nil)
	cfg.Sources["broken"] = model.RemoteSource{URL: "https://api.example.com/broken"}

	fetcher := options.FetcherFunc(func(_ context.Context, req options.Request) (any, error) {
		if req.URL == "https://api.example.com/broken" {
			return nil, errors.New("unavailable")
		}
		return []any{"CA", "NY"}, nil
	})
	resolver := options.NewResolver(cfg, options.WithFetcher(fetcher), options.WithLogger(zap.New(core)))

	resolver.Prefetch(context.Background(), []string{"states", "broken"}, nil)
	resolver.Wait()

	cached, ok := resolver.Lookup("states")
	want := []model.Option{{Value: "CA", Label: "CA"}, {Value: "NY", Label: "NY"}}
	if !ok {
		t.Fatalf("expected prefetched states")
	}
	if diff := cmp.Diff(want, cached); diff != "" {
		t.Fatalf("prefetch mismatch (-want +got):\n%s", diff)
	}

	warnings := logs.FilterMessage("prefetch failed").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one prefetch warning, got %d", len(warnings))
	}
	if got := warnings[0].ContextMap()["source"]; got != "broken" {
		t.Fatalf("expected warning for broken source, got %v", got)
	}
}

func TestTransformAndMappingOverHTTP(t *testing.T) {
	t.Parallel()

	srv := testsupport.NewOptionServer(t, http.StatusOK, map[string]any{
		"data": map[string]any{
			"items": []any{
				map[string]any{"id": 1, "title": "One"},
				map[string]any{"id": 2, "title": "Two"},
			},
		},
	})

	registry := options.NewTransformRegistry()
	if err := registry.RegisterExpr("items", `payload.data.items`); err != nil {
		t.Fatalf("register transform: %v", err)
	}

	cfg := &model.FormConfig{
		Sections: []model.Section{{ID: "s", Elements: []model.Field{{ID: "pick", Type: model.FieldTypeSelect}}}},
		Sources: map[string]model.RemoteSource{
			"things": {URL: srv.URL + "/things", Transform: "items", ValueField: "id", LabelField: "title"},
		},
	}
	resolver := options.NewResolver(cfg,
		options.WithFetcher(options.NewHTTPFetcher(options.WithHTTPClient(srv.Client()))),
		options.WithTransforms(registry),
	)

	got, err := resolver.Resolve(context.Background(), "things", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []model.Option{{Value: "1", Label: "One"}, {Value: "2", Label: "Two"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapped options mismatch (-want +got):\n%s", diff)
	}
	if raw := resolver.State("things").Raw; raw == nil {
		t.Fatalf("expected raw transformed payload to be kept")
	}
}

func TestUnknownTransformFails(t *testing.T) {
	t.Parallel()

	cfg := statesConfig(nil)
	src := cfg.Sources["states"]
	src.Transform = "missing"
	cfg.Sources["states"] = src

	fetcher := options.FetcherFunc(func(context.Context, options.Request) (any, error) { return []any{}, nil })
	resolver := options.NewResolver(cfg, options.WithFetcher(fetcher))
	if _, err := resolver.Resolve(context.Background(), "states", nil); !errors.Is(err, options.ErrTransformNotFound) {
		t.Fatalf("expected ErrTransformNotFound, got %v", err)
	}
}
