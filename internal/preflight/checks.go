package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sys/unix"
)

const feedCheckTimeout = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckAPIKey reports whether a provider key is configured. The key is never
// sent anywhere: provider quotas are too small to spend on health checks.
func CheckAPIKey(name, key, impact string) Result {
	if strings.TrimSpace(key) == "" {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("API key missing (%s)", impact)}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: "API key configured"}
}

// CheckFeed fetches and parses an RSS or Atom feed.
func CheckFeed(ctx context.Context, feedURL, userAgent string) Result {
	name := "Feed " + feedURL
	parsed, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{Name: name, Detail: "invalid feed url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, feedCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("fetch failed (%v)", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeFeedError(err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("fetch failed (%d)", resp.StatusCode)}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return Result{Name: name, Detail: summarizeFeedError(err)}
	}
	title := strings.TrimSpace(feed.Title)
	if title == "" {
		title = "untitled"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d items)", title, len(feed.Items))}
}

func summarizeFeedError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "fetch timed out"
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return "not an RSS or Atom feed"
	}
	return err.Error()
}
