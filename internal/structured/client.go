// Package structured implements the structured-protocol (RDAP) client:
// an HTTPS GET against an endpoint's {domain}-substituted URL, status
// code interpretation, and JSON extraction into model.Registration.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openrdap/rdap"

	"go.domaincheck.dev/checker/internal/model"
)

// Client performs structured-protocol lookups over HTTP.
type Client struct {
	HTTP      *http.Client
	UserAgent string

	// MaxBodyBytes bounds how much of a response body is read, guarding
	// against a misbehaving server; 0 means no extra limit beyond
	// http.Client's own.
	MaxBodyBytes int64

	now func() time.Time
}

// New builds a Client. If hc is nil, http.DefaultClient's transport
// settings are used with no client-level timeout (the caller is
// expected to bound the request via context, matching PerAttemptTimeout).
func New(hc *http.Client, userAgent string) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{HTTP: hc, UserAgent: userAgent, MaxBodyBytes: 2 << 20, now: time.Now}
}

// Lookup performs one attempt against urlStr, which must already have
// {domain} expanded. The Registration is non-nil only on a 200
// response.
func (c *Client) Lookup(ctx context.Context, urlStr, fqdn string) (model.Availability, *model.Registration, *model.CheckError) {
	start := c.clock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return model.Unknown, nil, model.BadQuery("structured", err.Error())
	}
	req.Header.Set("Accept", "application/rdap+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return model.Unknown, nil, model.Timeout("structured", c.clock().Sub(start))
		}
		return model.Unknown, nil, model.Network("structured", true, err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, c.MaxBodyBytes)
	if err != nil {
		return model.Unknown, nil, model.ResponseTooLarge("structured", int(c.MaxBodyBytes))
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

	switch {
	case resp.StatusCode == http.StatusOK:
		dom, perr := decodeDomain(body)
		if perr != nil {
			return model.Unknown, nil, model.ParseError("structured", perr.Error())
		}
		reg := mapDomainToRegistration(dom)
		return model.Taken, reg, nil

	case resp.StatusCode == http.StatusNotFound:
		return model.Available, nil, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return model.Unknown, nil, model.RateLimited("structured", retryAfter)

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return model.Unknown, nil, model.BadQuery("structured", fmt.Sprintf("status %d", resp.StatusCode))

	case resp.StatusCode >= 500:
		return model.Unknown, nil, model.Network("structured", true, fmt.Errorf("structured: status %d", resp.StatusCode))

	case resp.StatusCode >= 400:
		return model.Unknown, nil, &model.CheckError{
			Kind:     model.KindParseError,
			Protocol: "structured",
			Detail:   fmt.Sprintf("inconclusive status %d", resp.StatusCode),
		}

	default:
		return model.Unknown, nil, &model.CheckError{
			Kind:     model.KindParseError,
			Protocol: "structured",
			Detail:   fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("structured: response exceeds %d bytes", limit)
	}
	return b, nil
}

func decodeDomain(body []byte) (*rdap.Domain, error) {
	var dom rdap.Domain
	if err := json.Unmarshal(body, &dom); err != nil {
		return nil, err
	}
	return &dom, nil
}

// parseRetryAfter parses the Retry-After header: delta-seconds or an
// HTTP-date.
func parseRetryAfter(val string) time.Duration {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if d, err := time.ParseDuration(val + "s"); err == nil {
		if d < 0 {
			return 0
		}
		return d
	}
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, val); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
			return 0
		}
	}
	return 0
}
