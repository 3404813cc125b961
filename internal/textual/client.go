// Package textual implements the textual-protocol (WHOIS) client: a
// port-43 TCP query, per-TLD not-found/rate-limit signature matching,
// one-hop referral following, and line-oriented key/value extraction,
// built on github.com/domainr/whois.
package textual

import (
	"context"
	"strings"

	whois "github.com/domainr/whois"

	"go.domaincheck.dev/checker/internal/model"
)

// Fetch performs a single WHOIS query; a seam so tests can avoid a real
// TCP dial.
type Fetch func(ctx context.Context, query, host string) (string, error)

// maxResponseBytes is the hard cap on a WHOIS response body; a server
// that keeps streaming past this is misbehaving, not slow.
const maxResponseBytes = 1 << 20

// Client performs textual-protocol lookups.
type Client struct {
	Servers      map[string]string
	Signatures   SignatureTable
	MaxBodyBytes int
	fetch        Fetch
}

// New builds a Client with the compiled-in server table and signature
// table; callers may override either via the struct fields.
func New() *Client {
	return &Client{
		Servers:      Servers(),
		Signatures:   DefaultSignatureTable(),
		MaxBodyBytes: maxResponseBytes,
		fetch:        fetchAtHost,
	}
}

// fetchAtHost performs a WHOIS query at a specific host.
func fetchAtHost(ctx context.Context, query, host string) (string, error) {
	req, err := whois.NewRequest(query)
	if err != nil {
		return "", err
	}
	req.Host = host
	resp, err := whois.DefaultClient.FetchContext(ctx, req)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Lookup resolves fqdn's availability via WHOIS. tld selects the server
// from the compiled-in table; a missing mapping is NoTextualServer.
func (c *Client) Lookup(ctx context.Context, fqdn, tld string) (model.Availability, *model.Registration, *model.CheckError) {
	host, ok := c.Servers[strings.ToLower(tld)]
	if !ok {
		return model.Unknown, nil, model.NoTextualServer(tld)
	}

	body, err := c.fetch(ctx, fqdn, host)
	if err != nil {
		if ctx.Err() != nil {
			return model.Unknown, nil, &model.CheckError{Kind: model.KindTimeout, Protocol: "textual", Retryable: true}
		}
		return model.Unknown, nil, model.Network("textual", true, err)
	}
	if c.tooLarge(body) {
		return model.Unknown, nil, model.ResponseTooLarge("textual", c.capBytes())
	}

	if referral := referralHost(body); referral != "" && !strings.EqualFold(referral, host) {
		if refBody, rerr := c.fetch(ctx, fqdn, referral); rerr == nil && refBody != "" {
			if c.tooLarge(refBody) {
				return model.Unknown, nil, model.ResponseTooLarge("textual", c.capBytes())
			}
			body = refBody
		}
	}

	sig := c.Signatures.forTLD(tld)

	if matchesAny(body, sig.NotFound) || matchesAny(body, genericSignatures.NotFound) {
		return model.Available, nil, nil
	}

	if hasAnyKey(body, []string{"Domain Name", "Creation Date", "Registrar", "Registry Domain ID"}) {
		reg := parseRegistration(body)
		return model.Taken, reg, nil
	}

	if matchesAny(body, sig.RateLimit) || matchesAny(body, genericSignatures.RateLimit) {
		return model.Unknown, nil, model.RateLimited("textual", 0)
	}

	return model.Unknown, nil, nil
}

// referralHost extracts the "Registrar WHOIS Server:" line (or common
// case-insensitive synonyms), for the single permitted referral hop.
func referralHost(body string) string {
	keys := []string{"Registrar WHOIS Server", "WHOIS Server", "ReferralServer"}
	for _, line := range strings.Split(body, "\n") {
		l := strings.TrimSpace(line)
		idx := strings.IndexByte(l, ':')
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(l[:idx])
		for _, want := range keys {
			if strings.EqualFold(key, want) {
				val := strings.TrimSpace(l[idx+1:])
				val = strings.TrimPrefix(val, "rwhois://")
				val = strings.TrimPrefix(val, "whois://")
				return val
			}
		}
	}
	return ""
}

func (c *Client) capBytes() int {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return maxResponseBytes
}

func (c *Client) tooLarge(body string) bool {
	return len(body) > c.capBytes()
}

func hasAnyKey(body string, keys []string) bool {
	for _, k := range keys {
		if findValue(body, []string{k}) != "" {
			return true
		}
	}
	return false
}
