package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noDelays = []time.Duration{0, 0, 0}

func TestFetchWithRetryDelays(t *testing.T) {
	t.Parallel()

	t.Run("returns first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(context.Context, string) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("connection reset")
			}
			return "<html>ok</html>", nil
		}

		var logged []string
		logger := func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }

		html, err := crawl.FetchWithRetryDelays(context.Background(), "https://example.org", fetch, logger, noDelays)

		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", html)
		assert.Equal(t, 3, calls)
		require.Len(t, logged, 2)
		assert.Contains(t, logged[0], "attempt 2")
	})

	t.Run("gives up after all delays", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(context.Context, string) (string, error) {
			calls++
			return "", siteqa.Errorf(siteqa.EUNAVAILABLE, "HTTP 503")
		}

		_, err := crawl.FetchWithRetryDelays(context.Background(), "https://example.org", fetch, nil, noDelays)

		assert.Equal(t, siteqa.EUNAVAILABLE, siteqa.ErrorCode(err))
		assert.Equal(t, 4, calls)
	})

	t.Run("does not retry missing pages", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(context.Context, string) (string, error) {
			calls++
			return "", siteqa.Errorf(siteqa.ENOTFOUND, "HTTP 404")
		}

		_, err := crawl.FetchWithRetryDelays(context.Background(), "https://example.org/gone", fetch, nil, noDelays)

		assert.Equal(t, siteqa.ENOTFOUND, siteqa.ErrorCode(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetch := func(context.Context, string) (string, error) {
			cancel()
			return "", errors.New("timeout")
		}

		_, err := crawl.FetchWithRetryDelays(ctx, "https://example.org", fetch, nil, []time.Duration{time.Hour})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
