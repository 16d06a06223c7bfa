package options_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/testsupport"
)

func TestHTTPFetcherGETSendsQuery(t *testing.T) {
	t.Parallel()

	srv := testsupport.NewOptionServer(t, http.StatusOK, []any{map[string]any{"value": "CA", "label": "California"}})
	fetcher := options.NewHTTPFetcher(options.WithHTTPClient(srv.Client()), options.WithDefaultHeader("X-Client", "formflow"))

	payload, err := fetcher.Fetch(context.Background(), options.Request{
		URL:     srv.URL + "/states",
		Headers: map[string]string{"Authorization": "Bearer token"},
		Params:  map[string]string{"country": "US"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := payload.([]any); !ok {
		t.Fatalf("expected decoded list, got %T", payload)
	}

	req := srv.LastRequest()
	if req == nil {
		t.Fatalf("no request recorded")
	}
	if req.Method != http.MethodGet || req.URL.Path != "/states" || req.URL.Query().Get("country") != "US" {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
	if req.Header.Get("Authorization") != "Bearer token" || req.Header.Get("X-Client") != "formflow" {
		t.Fatalf("headers not forwarded: %v", req.Header)
	}
}

func TestHTTPFetcherPOSTSendsJSONBodyAndFillsPath(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotBody map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(srv.Close)

	fetcher := options.NewHTTPFetcher(options.WithHTTPClient(srv.Client()), options.WithBaseURL(srv.URL))
	_, err := fetcher.Fetch(context.Background(), options.Request{
		Method: "post",
		URL:    "/countries/{country}/cities",
		Params: map[string]string{"country": "US", "q": "san"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/countries/US/cities" {
		t.Fatalf("path not filled: %s", gotPath)
	}
	if diff := cmp.Diff(map[string]string{"q": "san"}, gotBody); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPFetcherStatusError(t *testing.T) {
	t.Parallel()

	srv := testsupport.NewOptionServer(t, http.StatusBadGateway, map[string]any{"error": "upstream"})
	fetcher := options.NewHTTPFetcher(options.WithHTTPClient(srv.Client()))

	_, err := fetcher.Fetch(context.Background(), options.Request{URL: srv.URL})
	var statusErr *options.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
}

func TestBuildRequestSubstitutesPlaceholders(t *testing.T) {
	t.Parallel()

	src := model.RemoteSource{
		Endpoint: "/cities",
		Method:   "get",
		Params:   map[string]string{"country": "{country}", "limit": "10", "size": "{size}"},
	}
	req := options.BuildRequest(src, map[string]string{"limit": "5", "tags": "{tags}"}, model.Answers{
		"country": "US",
		"tags":    []string{"a", "b"},
	})

	want := options.Request{
		Method:  "GET",
		URL:     "/cities",
		Headers: map[string]string{},
		Params:  map[string]string{"country": "US", "limit": "5", "size": "", "tags": "a,b"},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload any
		src     model.RemoteSource
		want    []model.Option
		wantErr bool
	}{
		{
			name:    "value label list",
			payload: []any{map[string]any{"value": "a", "label": "A"}, map[string]any{"value": "b"}},
			want:    []model.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "b"}},
		},
		{
			name:    "nested results with fields",
			payload: map[string]any{"data": map[string]any{"rows": []any{map[string]any{"code": "x", "meta": map[string]any{"name": "Ex"}}}}},
			src:     model.RemoteSource{ResultsPath: "data.rows", ValueField: "code", LabelField: "meta.name"},
			want:    []model.Option{{Value: "x", Label: "Ex"}},
		},
		{
			name:    "not a list",
			payload: map[string]any{"value": "a"},
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: nil,
			want:    []model.Option{},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := options.Decode(tc.payload, tc.src)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransformRegistry(t *testing.T) {
	t.Parallel()

	registry := options.NewTransformRegistry()
	if err := registry.Register(options.IdentityTransform, func(p any) (any, error) { return p, nil }); !errors.Is(err, options.ErrTransformExists) {
		t.Fatalf("expected duplicate identity to fail, got %v", err)
	}
	if err := registry.RegisterExpr("broken", "payload.("); err == nil {
		t.Fatalf("expected compile error")
	}
	if err := registry.RegisterExpr("labels", `map(payload, {{"value": #.id, "label": upper(#.name)}})`); err != nil {
		t.Fatalf("register: %v", err)
	}

	fn, err := registry.Lookup("labels")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	out, err := fn([]any{map[string]any{"id": "a", "name": "alpha"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	opts, err := options.Decode(out, model.RemoteSource{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]model.Option{{Value: "a", Label: "ALPHA"}}, opts); diff != "" {
		t.Fatalf("transform mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"identity", "labels"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
