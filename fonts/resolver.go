package fonts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wudi/fieldfill/observability"
)

// LoadResult is the outcome of one font resolution, created once per export
// and reused for every field on every page. Fallback is always usable;
// Primary equals Fallback when no custom asset could be loaded.
type LoadResult struct {
	Primary  *Font
	Fallback *Font
	Success  bool
	FontName string
}

// Resolver loads the custom Unicode font from a list of asset paths, trying
// each in order, and degrades to the standard font when all of them fail.
// Paths may be local files or http(s) URLs.
type Resolver struct {
	Paths  []string
	Client *http.Client
	Logger observability.Logger

	// Cache overrides the process-wide cache; nil uses the shared one.
	Cache *Cache
}

// Load resolves fonts for one export. Asset failures are logged and recovered
// by falling back; Load itself never fails.
func (r *Resolver) Load(ctx context.Context) LoadResult {
	log := r.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	fallback := NewStandard()

	start := time.Now()
	for _, path := range r.Paths {
		font, err := r.cache().load(ctx, path, r.client())
		if err != nil {
			log.Warn("font asset failed, trying next",
				observability.String("path", path), observability.Error(err))
			continue
		}
		log.Debug("font resolved",
			observability.String("path", path),
			observability.String("font", font.Name),
			observability.Duration(observability.MetricFontLoadTime, time.Since(start)))
		return LoadResult{Primary: font, Fallback: fallback, Success: true, FontName: font.Name}
	}

	if len(r.Paths) > 0 {
		log.Warn("all font assets failed, using standard font",
			observability.Int("paths", len(r.Paths)))
	}
	return LoadResult{Primary: fallback, Fallback: fallback, Success: false, FontName: fallback.Name}
}

func (r *Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return defaultClient
}

func (r *Resolver) cache() *Cache {
	if r.Cache != nil {
		return r.Cache
	}
	return &sharedCache
}

var defaultClient = &http.Client{Timeout: 30 * time.Second}

// Cache memoizes parsed fonts by asset path across exports. Entries live
// until Invalidate is called (asset-version change).
type Cache struct {
	mu sync.Mutex
	m  map[string]*Font
}

var sharedCache Cache

// Invalidate drops the cached font for a path from the shared cache.
func Invalidate(path string) { sharedCache.Invalidate(path) }

// Invalidate drops the cached font for a path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.m, path)
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context, path string, client *http.Client) (*Font, error) {
	c.mu.Lock()
	if f, ok := c.m[path]; ok {
		c.mu.Unlock()
		// Fresh Font per export: glyph-usage tracking must not leak between
		// exports, only the parsed face is shared.
		return &Font{Name: f.Name, tt: f.tt}, nil
	}
	c.mu.Unlock()

	data, err := fetchAsset(ctx, path, client)
	if err != nil {
		return nil, err
	}
	font, err := ParseTrueType(baseName(path), data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.m == nil {
		c.m = make(map[string]*Font)
	}
	c.m[path] = font
	c.mu.Unlock()
	return &Font{Name: font.Name, tt: font.tt}, nil
}

func fetchAsset(ctx context.Context, path string, client *http.Client) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func baseName(path string) string {
	name := path
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".ttf")
}
