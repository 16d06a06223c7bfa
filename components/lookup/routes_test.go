package lookup

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		base string
		fns  []OptionFn
		want string
	}{
		"absolute":   {base: "/admin", want: "/admin/api/options"},
		"relative":   {base: "admin", want: "/admin/api/options"},
		"root":       {base: "", want: "/api/options"},
		"custom":     {base: "/admin/", fns: []OptionFn{WithRoutePath("lists/")}, want: "/admin/lists"},
		"origin url": {base: "http://localhost:8080/", want: "http://localhost:8080/api/options"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := MountPath(tc.base, tc.fns...); got != tc.want {
				t.Fatalf("MountPath(%q) = %q, want %q", tc.base, got, tc.want)
			}
		})
	}
}

func TestRegisterRoutes_RegistersHandler(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/admin", WithProvider("zones", Values("UTC", "Europe/Paris")))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/options/" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	req := httptest.NewRequest(http.MethodGet, pattern+"zones?q=utc&limit=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	t.Parallel()

	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}
