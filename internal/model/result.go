// Package model holds the types shared across the domain availability
// engine: the result record, the error taxonomy, and the endpoint
// registry's cache entry. None of these types reach out to the network;
// they are pure data plus small invariant-preserving constructors.
package model

import (
	"strings"
	"time"
)

// Availability is the tri-state outcome of a domain check.
type Availability string

const (
	Available Availability = "available"
	Taken     Availability = "taken"
	Unknown   Availability = "unknown"
)

// Method records which protocol ultimately produced a DomainResult.
type Method string

const (
	MethodStructured Method = "structured"
	MethodTextual    Method = "textual"
	MethodCached     Method = "cached"
	MethodNone       Method = "none"
)

// Protocol identifies a single attempt's protocol, independent of
// whether it was the one that produced the final result.
type Protocol string

const (
	ProtocolStructured Protocol = "structured"
	ProtocolTextual    Protocol = "textual"
)

// Attempt is one try of one protocol against one domain.
type Attempt struct {
	Protocol Protocol
	Outcome  string // "available" | "taken" | "unknown" | "error"
	Error    *CheckError
	Elapsed  time.Duration
}

// DomainResult is the uniform record emitted for every expanded input
// FQDN. Constructed exactly once per FQDN; never mutated after it is
// handed to a caller.
type DomainResult struct {
	FQDN         string
	Availability Availability
	MethodUsed   Method

	Registrar    string
	CreationDate string
	ExpiryDate   string
	UpdatedDate  string
	StatusCodes  []string
	NameServers  []string

	Error *CheckError

	Attempts []Attempt
}

// Registration carries the partial metadata a protocol attempt produced,
// before it is known whether the domain is taken. The orchestrator
// merges two of these (structured then textual) using last-writer-wins
// for scalars and set-union for the list fields.
type Registration struct {
	Registrar    string
	CreationDate string
	ExpiryDate   string
	UpdatedDate  string
	StatusCodes  []string
	NameServers  []string
}

// MergeFrom overlays `other` onto r: non-empty scalars in other replace
// r's, and set-valued fields are unioned, deduplicated, preserving r's
// existing order followed by any new entries from other.
func (r *Registration) MergeFrom(other *Registration) {
	if other == nil {
		return
	}
	if other.Registrar != "" {
		r.Registrar = other.Registrar
	}
	if other.CreationDate != "" {
		r.CreationDate = other.CreationDate
	}
	if other.ExpiryDate != "" {
		r.ExpiryDate = other.ExpiryDate
	}
	if other.UpdatedDate != "" {
		r.UpdatedDate = other.UpdatedDate
	}
	r.StatusCodes = unionStrings(r.StatusCodes, other.StatusCodes)
	r.NameServers = unionStrings(r.NameServers, other.NameServers)
}

func unionStrings(base, add []string) []string {
	seen := make(map[string]struct{}, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, s := range base {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range add {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ApplyTo copies the registration's fields onto a DomainResult.
func (r *Registration) ApplyTo(res *DomainResult) {
	if r == nil {
		return
	}
	res.Registrar = r.Registrar
	res.CreationDate = r.CreationDate
	res.ExpiryDate = r.ExpiryDate
	res.UpdatedDate = r.UpdatedDate
	res.StatusCodes = r.StatusCodes
	res.NameServers = r.NameServers
}

// EndpointSource records where an EndpointEntry came from.
type EndpointSource string

const (
	SourceStatic    EndpointSource = "static"
	SourceBootstrap EndpointSource = "bootstrap"
)

// EndpointEntry is the structured-protocol endpoint for one TLD.
// URLTemplate uses the literal placeholder "{domain}". A Negative entry
// (Negative == true) records that no endpoint is known, so repeated
// misses within TTL don't re-trigger a bootstrap fetch.
type EndpointEntry struct {
	TLD         string
	URLTemplate string
	Source      EndpointSource
	FetchedAt   time.Time
	Negative    bool
}

// Expand substitutes the literal {domain} placeholder in the template.
func (e *EndpointEntry) Expand(fqdn string) string {
	if e == nil || e.URLTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(e.URLTemplate, "{domain}", fqdn)
}
