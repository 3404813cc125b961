package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go.domaincheck.dev/checker/internal/cache"
	"go.domaincheck.dev/checker/internal/config"
	"go.domaincheck.dev/checker/internal/logging"
	"go.domaincheck.dev/checker/internal/model"
)

func TestEngine_InvalidInputIsolatedFromValidOnes(t *testing.T) {
	t.Parallel()

	cfg := config.Configuration{
		ProtocolOrder: config.StructuredOnly,
		Bootstrap:     false,
		TLDs:          []string{"com"},
	}
	e, err := NewWithCache(cfg, logging.Discard(), cache.NewMemory())
	require.NoError(t, err)

	results := e.Run(context.Background(), []string{"--bad"})
	require.Len(t, results, 1)
	require.Equal(t, model.Unknown, results[0].Availability)
	require.NotNil(t, results[0].Error)
	require.Equal(t, model.KindInvalidInput, results[0].Error.Kind)
}

func TestEngine_BareLabelExpandsAcrossConfiguredTLDs(t *testing.T) {
	t.Parallel()

	cfg := config.Configuration{
		ProtocolOrder: config.StructuredOnly,
		Bootstrap:     false,
		TLDs:          []string{"com", "io"},
	}
	e, err := NewWithCache(cfg, logging.Discard(), cache.NewMemory())
	require.NoError(t, err)

	runID, expanded := e.expand([]string{"acme"})
	require.NotEmpty(t, runID)
	require.Len(t, expanded, 2)
	require.Equal(t, "acme.com", expanded[0].FQDN)
	require.Equal(t, "acme.io", expanded[1].FQDN)
}
