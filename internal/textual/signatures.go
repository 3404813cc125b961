package textual

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// tldSignatures holds the case-insensitive substring patterns used to
// classify a WHOIS response for one TLD, in this order of precedence:
// not-found patterns win outright, then key-presence implies taken, then
// rate-limit patterns trigger a retry.
type tldSignatures struct {
	NotFound  []string `toml:"not_found"`
	RateLimit []string `toml:"rate_limit"`
}

// defaultSignatures seeds the common registries; entries not present
// here fall back to genericSignatures.
var defaultSignatures = map[string]tldSignatures{
	"com": {NotFound: []string{"No match for"}, RateLimit: []string{"exceeded the allow"}},
	"net": {NotFound: []string{"No match for"}, RateLimit: []string{"exceeded the allow"}},
	"org": {NotFound: []string{"NOT FOUND"}, RateLimit: []string{"too many requests"}},
	"io":  {NotFound: []string{"is available for purchase", "Domain not found"}},
	"dev": {NotFound: []string{"Domain not found"}},
	"app": {NotFound: []string{"Domain not found"}},
}

// genericSignatures catches the common phrasings registries use when
// they don't have a dedicated entry above.
var genericSignatures = tldSignatures{
	NotFound: []string{
		"No match for",
		"NOT FOUND",
		"No Data Found",
		"Status: free",
		"Domain not found",
		"is available for purchase",
	},
	RateLimit: []string{
		"exceeded the allow",
		"too many requests",
		"quota exceeded",
		"access denied",
	},
}

// SignatureTable is the full, mutable signature set used by a Client. It
// is a plain map so entries read by LoadSignatureFile can be added to it
// without touching client code, satisfying the requirement that the
// table be externally extensible without a code change.
type SignatureTable map[string]tldSignatures

// DefaultSignatureTable returns a copy of the compiled-in table.
func DefaultSignatureTable() SignatureTable {
	out := make(SignatureTable, len(defaultSignatures))
	for k, v := range defaultSignatures {
		out[k] = v
	}
	return out
}

// LoadSignatureFile reads a TOML file of the form:
//
//	[com]
//	not_found = ["No match for"]
//	rate_limit = ["exceeded the allow"]
//
// and returns the resulting table, for operators who need to extend
// coverage without a rebuild.
func LoadSignatureFile(path string) (SignatureTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("textual: read signature file: %w", err)
	}
	table := make(SignatureTable)
	if err := toml.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("textual: parse signature file: %w", err)
	}
	return table, nil
}

func (t SignatureTable) forTLD(tld string) tldSignatures {
	if sig, ok := t[strings.ToLower(tld)]; ok {
		return sig
	}
	return genericSignatures
}

func matchesAny(body string, patterns []string) bool {
	lower := strings.ToLower(body)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
