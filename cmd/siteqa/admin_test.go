package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fwojciec/siteqa"
	main "github.com/fwojciec/siteqa/cmd/siteqa"
	"github.com/fwojciec/siteqa/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints rebuild stats", func(t *testing.T) {
		t.Parallel()

		admin := &mock.IndexAdmin{
			RebuildIndexFn: func(context.Context) (*siteqa.RebuildResult, error) {
				return &siteqa.RebuildResult{Documents: 12, Skipped: 2, Chunks: 48, Duration: 1500 * time.Millisecond}, nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Admin: admin}

		err := (&main.IndexCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Indexed 48 chunks from 12 pages in 1.5s")
		assert.Contains(t, stdout.String(), "Skipped 2 pages")
	})

	t.Run("reports a concurrent rebuild", func(t *testing.T) {
		t.Parallel()

		admin := &mock.IndexAdmin{
			RebuildIndexFn: func(context.Context) (*siteqa.RebuildResult, error) {
				return nil, siteqa.Errorf(siteqa.ECONFLICT, "index rebuild already in progress")
			},
		}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: stderr, Admin: admin}

		err := (&main.IndexCmd{}).Run(deps)

		assert.Equal(t, siteqa.ECONFLICT, siteqa.ErrorCode(err))
		assert.Contains(t, stderr.String(), "already in progress")
	})
}

func TestHealthCmd_Run(t *testing.T) {
	t.Parallel()

	admin := &mock.IndexAdmin{
		HealthFn: func(context.Context) *siteqa.Health {
			return &siteqa.Health{
				Status:          siteqa.HealthOK,
				State:           siteqa.IndexReady,
				IndexSize:       48,
				Model:           "gemini-embedding-001",
				CompletionModel: "gemini-2.5-flash",
			}
		},
	}
	stdout := &bytes.Buffer{}
	deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Admin: admin}

	err := (&main.HealthCmd{}).Run(deps)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "ready (48 chunks)")
	assert.Contains(t, stdout.String(), "gemini-embedding-001")
	assert.Contains(t, stdout.String(), "gemini-2.5-flash")
}

func TestHealthCmd_RunDegraded(t *testing.T) {
	t.Parallel()

	admin := &mock.IndexAdmin{
		HealthFn: func(context.Context) *siteqa.Health {
			return &siteqa.Health{
				Status:    siteqa.HealthDegraded,
				State:     siteqa.IndexUninitialized,
				Model:     "gemini-embedding-001",
				ErrorCode: siteqa.ECORRUPT,
				Error:     `collection "site": entry a-0 content checksum mismatch`,
			}
		},
	}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: stderr, Admin: admin}

	err := (&main.HealthCmd{}).Run(deps)

	assert.Equal(t, siteqa.ECORRUPT, siteqa.ErrorCode(err))
	assert.Contains(t, stdout.String(), "status:     degraded")
	assert.Contains(t, stdout.String(), "ECORRUPT: collection")
	assert.Contains(t, stderr.String(), "siteqa index")
}

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout := &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:      ctx,
		Stdout:   stdout,
		Stderr:   &bytes.Buffer{},
		Answerer: &mock.Answerer{},
		Admin:    &mock.IndexAdmin{},
	}

	err := (&main.ServeCmd{Addr: "127.0.0.1:0"}).Run(deps)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Listening on http://127.0.0.1:")
}
