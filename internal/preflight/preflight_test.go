package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"visualverify/internal/config"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Wire</title>
<item><title>Flood in Bangladesh</title><link>https://news.example/a</link></item>
<item><title>Protest in Paris</title><link>https://news.example/b</link></item>
</channel></rss>`

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing dir failure, got %#v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckAPIKeyIsOptional(t *testing.T) {
	missing := CheckAPIKey("SerpAPI", " ", "reverse image search disabled")
	if missing.Passed || !missing.Optional {
		t.Fatalf("expected optional failure, got %#v", missing)
	}
	present := CheckAPIKey("SerpAPI", "key", "")
	if !present.Passed {
		t.Fatalf("expected pass, got %#v", present)
	}
}

func TestCheckFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			if r.Header.Get("User-Agent") != "vv-test" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(sampleRSS))
		case "/html":
			_, _ = w.Write([]byte("<html><body>nope</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ok := CheckFeed(context.Background(), srv.URL+"/rss", "vv-test")
	if !ok.Passed || ok.Detail != "Wire (2 items)" {
		t.Fatalf("expected pass, got %#v", ok)
	}
	if res := CheckFeed(context.Background(), srv.URL+"/missing", "vv-test"); res.Passed || res.Detail != "fetch failed (404)" {
		t.Fatalf("expected 404 failure, got %#v", res)
	}
	if res := CheckFeed(context.Background(), srv.URL+"/html", "vv-test"); res.Passed {
		t.Fatalf("expected parse failure, got %#v", res)
	}
	if res := CheckFeed(context.Background(), "not a url", "vv-test"); res.Passed || res.Detail != "invalid feed url" {
		t.Fatalf("expected invalid url failure, got %#v", res)
	}
}

func TestRunAllAndFailed(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.LogDir = base
	cfg.Providers.SerpAPIKey = ""
	cfg.Providers.BingAPIKey = ""
	cfg.Providers.Feeds = nil

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if Failed(results) {
		t.Fatalf("missing keys should not fail preflight: %#v", results)
	}

	cfg.Paths.LogDir = filepath.Join(base, "missing")
	if !Failed(RunAll(context.Background(), &cfg)) {
		t.Fatal("expected missing log dir to fail preflight")
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
