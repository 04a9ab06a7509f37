package crawl

import (
	"net/url"
	"strings"
)

// Frontier is a breadth-first queue of URLs to visit. Each URL is queued at
// most once; fragments and trailing slashes are ignored when comparing.
// It is not safe for concurrent use.
type Frontier struct {
	seen  map[string]struct{}
	queue []frontierItem
}

type frontierItem struct {
	url   string
	depth int
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{seen: make(map[string]struct{})}
}

// Push queues rawURL at depth. Returns false if the URL was already seen or
// cannot be parsed.
func (f *Frontier) Push(rawURL string, depth int) bool {
	key, ok := normalizeURL(rawURL)
	if !ok {
		return false
	}
	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	f.queue = append(f.queue, frontierItem{url: key, depth: depth})
	return true
}

// Pop returns the oldest queued URL and its depth.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (string, int, bool) {
	if len(f.queue) == 0 {
		return "", 0, false
	}
	item := f.queue[0]
	f.queue = f.queue[1:]
	return item.url, item.depth, true
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int { return len(f.queue) }

// normalizeURL drops the fragment and a trailing slash on non-root paths.
func normalizeURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}
	return u.String(), true
}
