package fonts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolverAllPathsFailFallsBackToStandard(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := &Resolver{
		Paths: []string{srv.URL + "/fonts/a.ttf", srv.URL + "/fonts/b.ttf"},
		Cache: &Cache{},
	}
	res := r.Load(context.Background())
	if res.Success {
		t.Fatal("Success reported with no loadable asset")
	}
	if res.FontName != StandardFontName {
		t.Fatalf("FontName = %q, want %q", res.FontName, StandardFontName)
	}
	if res.Primary == nil || res.Fallback == nil || !res.Primary.Standard {
		t.Fatalf("fallback fonts not usable: %+v", res)
	}
	// The degraded result must still measure and encode.
	if _, err := res.Primary.WidthOfTextAtSize("ok", 12); err != nil {
		t.Fatalf("standard font unusable after fallback: %v", err)
	}
}

func TestResolverNoPathsUsesStandard(t *testing.T) {
	r := &Resolver{Cache: &Cache{}}
	res := r.Load(context.Background())
	if res.Success || !res.Primary.Standard || res.Primary != res.Fallback {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolverUnparsableAssetFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("this is not a ttf"))
	}))
	defer srv.Close()

	r := &Resolver{Paths: []string{srv.URL + "/broken.ttf"}, Cache: &Cache{}}
	res := r.Load(context.Background())
	if res.Success {
		t.Fatal("unparsable asset reported as success")
	}
}

func TestResolverMissingLocalFileFallsBack(t *testing.T) {
	r := &Resolver{Paths: []string{"testdata/does-not-exist.ttf"}, Cache: &Cache{}}
	res := r.Load(context.Background())
	if res.Success {
		t.Fatal("missing file reported as success")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := &Cache{}
	c.m = map[string]*Font{"p": NewStandard()}
	c.Invalidate("p")
	if _, ok := c.m["p"]; ok {
		t.Fatal("entry survived Invalidate")
	}
	// Invalidating an absent path is a no-op.
	c.Invalidate("q")
}

func TestResolverDoesNotRefetchCachedAsset(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		http.NotFound(w, req)
	}))
	defer srv.Close()

	// Failures are not cached: each Load retries the asset.
	r := &Resolver{Paths: []string{srv.URL + "/f.ttf"}, Cache: &Cache{}}
	r.Load(context.Background())
	r.Load(context.Background())
	if hits != 2 {
		t.Fatalf("failed loads must not be cached, hits = %d", hits)
	}
}
