package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/fwojciec/siteqa"
	sitehttp "github.com/fwojciec/siteqa/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves path->content. Content may contain {{BASE}}, which is
// replaced with the server URL.
func newTestServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
		} else {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{BASE}}", srv.URL)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func urlset(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		sb.WriteString("<url><loc>" + loc + "</loc></url>")
	}
	sb.WriteString("</urlset>")
	return sb.String()
}

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("reads sitemaps listed in robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/robots.txt":       "User-agent: *\nDisallow: /private/\nSITEMAP: {{BASE}}/pages.xml\n",
			"/pages.xml":        urlset("{{BASE}}/about", "{{BASE}}/contact"),
			"/sitemap.xml":      urlset("{{BASE}}/ignored"),
			"/unused-index.xml": "",
		})

		urls, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/about", srv.URL + "/contact"}, urls)
	})

	t.Run("falls back to sitemap.xml", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/"),
		})

		urls, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/"}, urls)
	})

	t.Run("resolves nested indexes and removes duplicates", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-pages.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-posts.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`,
			"/sitemap-pages.xml": urlset("{{BASE}}/about", "{{BASE}}/team"),
			"/sitemap-posts.xml": urlset("{{BASE}}/news/launch", "{{BASE}}/about"),
		})

		urls, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/about", srv.URL + "/team", srv.URL + "/news/launch"}, urls)
	})

	t.Run("keeps only same-host URLs under the base path", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset(
				"{{BASE}}/org/about",
				"{{BASE}}/organic",
				"{{BASE}}/org",
				"https://cdn.example.com/org/asset",
			),
		})

		urls, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL+"/org/", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/org/about", srv.URL + "/org"}, urls)
	})

	t.Run("applies include and exclude filters", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/about", "{{BASE}}/about/history", "{{BASE}}/blog/post"),
		})
		filter := &siteqa.URLFilter{
			Include: []*regexp.Regexp{regexp.MustCompile(`/about`)},
			Exclude: []*regexp.Regexp{regexp.MustCompile(`/history$`)},
		}

		urls, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL, filter)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/about"}, urls)
	})

	t.Run("returns empty slice without sitemap", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{})

		urls, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL, nil)

		require.NoError(t, err)
		assert.NotNil(t, urls)
		assert.Empty(t, urls)
	})

	t.Run("reports malformed sitemaps", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{"/sitemap.xml": "<urlset><<</urlset>"})

		_, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(ctx, srv.URL, nil)

		assert.Equal(t, siteqa.EMALFORMED, siteqa.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{"/sitemap.xml": urlset("{{BASE}}/a")})
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := sitehttp.NewSitemapService(srv.Client()).DiscoverURLs(canceled, srv.URL, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		_, err := sitehttp.NewSitemapService(nil).DiscoverURLs(ctx, "::not a url", nil)

		assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(err))
	})
}
