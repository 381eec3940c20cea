package optionfeed

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	t.Parallel()

	if got := MountPath("/kitchen"); got != "/kitchen/api/options/" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("kitchen"); got != "/kitchen/api/options/" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("/kitchen/", WithRoutePath("lists")); got != "/kitchen/lists/" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath(""); got != "/api/options/" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestComponent_RegisterRoutes(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	pattern, err := New(WithSets(suppliers())).RegisterRoutes(mux, "/kitchen")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/kitchen/api/options/" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	req := httptest.NewRequest(http.MethodGet, pattern+"suppliers?q=bak&limit=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if _, err := RegisterRoutes(nil, "/kitchen"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}
