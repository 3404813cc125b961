package textual

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go.domaincheck.dev/checker/internal/model"
)

func withFetch(c *Client, f Fetch) *Client {
	c.fetch = f
	return c
}

func TestLookup_NoServerMapping(t *testing.T) {
	t.Parallel()
	c := New()
	c.Servers = map[string]string{}
	_, _, cerr := c.Lookup(context.Background(), "acme.zz", "zz")
	require.NotNil(t, cerr)
	require.Equal(t, model.KindNoTextualServer, cerr.Kind)
}

func TestLookup_NotFoundSignature(t *testing.T) {
	t.Parallel()
	c := withFetch(New(), func(ctx context.Context, query, host string) (string, error) {
		return "No match for \"ACME.COM\"\n", nil
	})
	avail, reg, cerr := c.Lookup(context.Background(), "acme.com", "com")
	require.Nil(t, cerr)
	require.Equal(t, model.Available, avail)
	require.Nil(t, reg)
}

func TestLookup_TakenExtractsFields(t *testing.T) {
	t.Parallel()
	body := "Domain Name: ACME.COM\r\n" +
		"Registrar: Registry X\r\n" +
		"Creation Date: 2020-01-01T00:00:00Z\r\n" +
		"Registry Expiry Date: 2030-01-01T00:00:00Z\r\n" +
		"Domain Status: clientTransferProhibited https://icann.org/epp\r\n" +
		"Domain Status: ok\r\n" +
		"Name Server: NS1.EXAMPLE.COM\r\n" +
		"Name Server: ns2.example.com\r\n"
	c := withFetch(New(), func(ctx context.Context, query, host string) (string, error) {
		return body, nil
	})
	avail, reg, cerr := c.Lookup(context.Background(), "acme.com", "com")
	require.Nil(t, cerr)
	require.Equal(t, model.Taken, avail)
	require.Equal(t, "Registry X", reg.Registrar)
	require.Equal(t, "2020-01-01T00:00:00Z", reg.CreationDate)
	require.Contains(t, reg.StatusCodes, "clientTransferProhibited")
	require.Contains(t, reg.NameServers, "ns2.example.com")
	require.Len(t, reg.NameServers, 2)
}

func TestLookup_ReferralFollowedOnce(t *testing.T) {
	t.Parallel()
	calls := 0
	c := withFetch(New(), func(ctx context.Context, query, host string) (string, error) {
		calls++
		if host == "whois.verisign-grs.com" {
			return "Domain Name: ACME.COM\r\nRegistrar WHOIS Server: whois.registry-x.test\r\n", nil
		}
		require.Equal(t, "whois.registry-x.test", host)
		return "Domain Name: ACME.COM\r\nRegistrar: Registry X\r\nCreation Date: 2020-01-01T00:00:00Z\r\n", nil
	})
	avail, reg, cerr := c.Lookup(context.Background(), "acme.com", "com")
	require.Nil(t, cerr)
	require.Equal(t, model.Taken, avail)
	require.Equal(t, "Registry X", reg.Registrar)
	require.Equal(t, 2, calls)
}

func TestLookup_RateLimitSignature(t *testing.T) {
	t.Parallel()
	c := withFetch(New(), func(ctx context.Context, query, host string) (string, error) {
		return "Your request has exceeded the allowable limit", nil
	})
	avail, _, cerr := c.Lookup(context.Background(), "acme.com", "com")
	require.NotNil(t, cerr)
	require.Equal(t, model.Unknown, avail)
	require.True(t, model.IsRetryable(cerr))
}

func TestLookup_ResponseTooLarge(t *testing.T) {
	t.Parallel()
	c := withFetch(New(), func(ctx context.Context, query, host string) (string, error) {
		return strings.Repeat("a", maxResponseBytes+1), nil
	})
	avail, reg, cerr := c.Lookup(context.Background(), "acme.com", "com")
	require.NotNil(t, cerr)
	require.Equal(t, model.KindResponseTooLarge, cerr.Kind)
	require.Equal(t, model.Unknown, avail)
	require.Nil(t, reg)
}

func TestLookup_UnknownWhenNoSignalMatches(t *testing.T) {
	t.Parallel()
	c := withFetch(New(), func(ctx context.Context, query, host string) (string, error) {
		return "An unexpected maintenance message with no recognizable fields.\n", nil
	})
	avail, reg, cerr := c.Lookup(context.Background(), "acme.com", "com")
	require.Nil(t, cerr)
	require.Equal(t, model.Unknown, avail)
	require.Nil(t, reg)
}
