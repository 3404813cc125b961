// Package normalize implements the input normalizer:
// label validation and bare-label → FQDN expansion across a TLD set.
package normalize

import (
	"strings"

	"golang.org/x/net/idna"

	"go.domaincheck.dev/checker/internal/model"
)

const maxFQDNLength = 253
const maxLabelLength = 63

// idnaProfile converts U-labels to A-labels using UTS-46 non-transitional
// processing (open question #3 in SPEC_FULL.md, decided in favor of
// current registry/browser practice over IDNA2003).
var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.ValidateLabels(true),
)

// InputKind classifies a raw textual input after trimming/casing.
type InputKind int

const (
	KindInvalid InputKind = iota
	KindFQDN
	KindBareLabel
)

// Classify validates a single raw input and reports whether it is an
// already-qualified FQDN (contains an internal dot) or a bare label to
// be expanded across the configured TLD set. On invalid input it returns
// KindInvalid and a CheckError describing why.
func Classify(raw string) (InputKind, string, *model.CheckError) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return KindInvalid, "", model.InvalidInput("empty input")
	}

	converted, err := idnaProfile.ToASCII(s)
	if err == nil && converted != "" {
		s = strings.ToLower(converted)
	}

	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return KindInvalid, "", model.InvalidInput("leading or trailing dot")
	}
	if strings.Contains(s, "..") {
		return KindInvalid, "", model.InvalidInput("consecutive dots")
	}
	if len(s) > maxFQDNLength {
		return KindInvalid, "", model.InvalidInput("fqdn exceeds 253 octets")
	}

	labels := strings.Split(s, ".")
	for _, l := range labels {
		if !validLabel(l) {
			return KindInvalid, "", model.InvalidInput("invalid label: " + l)
		}
	}

	if len(labels) > 1 {
		return KindFQDN, s, nil
	}
	return KindBareLabel, s, nil
}

// TLD returns the rightmost label of a valid FQDN.
func TLD(fqdn string) string {
	if i := strings.LastIndexByte(fqdn, '.'); i >= 0 {
		return fqdn[i+1:]
	}
	return fqdn
}

func validLabel(l string) bool {
	if l == "" || len(l) > maxLabelLength {
		return false
	}
	if l[0] == '-' || l[len(l)-1] == '-' {
		return false
	}
	for i := 0; i < len(l); i++ {
		c := l[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// Expanded is one entry of an expansion: a valid FQDN with a nil Error,
// or, for an input that failed validation, the trimmed raw input in
// FQDN together with its Error, so downstream error reporting
// (invalid-input isolation) can still be attributed to its source.
type Expanded struct {
	FQDN  string
	Error *model.CheckError
}

// Expand classifies and expands a user-ordered list of raw inputs across
// tldSet, preserving order: for each input in order, all TLD
// combinations in tldSet order, then a global dedup keeping first
// occurrence. Invalid inputs are preserved as their own Expanded
// entry carrying the error, rather than dropped, so every input produces
// exactly one downstream result ("every input produces exactly one
// result").
func Expand(inputs []string, tldSet []string) []Expanded {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]Expanded, 0, len(inputs))

	emit := func(fqdn string, errv *model.CheckError) {
		if errv == nil {
			if _, ok := seen[fqdn]; ok {
				return
			}
			seen[fqdn] = struct{}{}
		}
		out = append(out, Expanded{FQDN: fqdn, Error: errv})
	}

	for _, raw := range inputs {
		kind, s, errv := Classify(raw)
		switch kind {
		case KindInvalid:
			emit(strings.TrimSpace(raw), errv)
		case KindFQDN:
			emit(s, nil)
		case KindBareLabel:
			if len(tldSet) == 0 {
				emit(s, model.InvalidInput("bare label with empty tld set: "+s))
				continue
			}
			for _, tld := range tldSet {
				emit(s+"."+tld, nil)
			}
		}
	}
	return out
}
