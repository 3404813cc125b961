package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_BoundaryLabelLength(t *testing.T) {
	t.Parallel()

	label63 := strings.Repeat("a", 63)
	kind, s, err := Classify(label63)
	require.Nil(t, err)
	require.Equal(t, KindBareLabel, kind)
	require.Equal(t, label63, s)

	label64 := strings.Repeat("a", 64)
	kind, _, err = Classify(label64)
	require.Equal(t, KindInvalid, kind)
	require.NotNil(t, err)
}

func TestClassify_BoundaryFQDNLength(t *testing.T) {
	t.Parallel()

	// 253 octets total: three 63-char labels, each followed by a dot,
	// plus a 61-char label = 3*64 + 61 = 253.
	fqdn253 := strings.Repeat(strings.Repeat("a", 63)+".", 3) + strings.Repeat("a", 61)
	require.Len(t, fqdn253, 253)
	kind, _, err := Classify(fqdn253)
	require.Nil(t, err)
	require.Equal(t, KindFQDN, kind)

	fqdn254 := strings.Repeat(strings.Repeat("a", 63)+".", 3) + strings.Repeat("a", 62)
	require.Len(t, fqdn254, 254)
	kind, _, err = Classify(fqdn254)
	require.Equal(t, KindInvalid, kind)
	require.NotNil(t, err)
}

func TestClassify_RejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := []string{"", "  ", ".example.com", "example.com.", "exa..mple.com", "-bad.com", "bad-.com", "exa mple.com"}
	for _, c := range cases {
		kind, _, err := Classify(c)
		require.Equal(t, KindInvalid, kind, "input %q", c)
		require.NotNil(t, err)
	}
}

func TestClassify_FQDNNotExpanded(t *testing.T) {
	t.Parallel()

	kind, s, err := Classify("Example.COM")
	require.Nil(t, err)
	require.Equal(t, KindFQDN, kind)
	require.Equal(t, "example.com", s)
}

func TestExpand_BareLabelAcrossTLDs(t *testing.T) {
	t.Parallel()

	out := Expand([]string{"acme"}, []string{"com", "io"})
	require.Len(t, out, 2)
	require.Equal(t, "acme.com", out[0].FQDN)
	require.Equal(t, "acme.io", out[1].FQDN)
	for _, e := range out {
		require.Nil(t, e.Error)
	}
}

func TestExpand_PreservesOrderAndDedups(t *testing.T) {
	t.Parallel()

	out := Expand([]string{"a", "a.com", "b"}, []string{"com", "io"})
	var fqdns []string
	for _, e := range out {
		if e.Error == nil {
			fqdns = append(fqdns, e.FQDN)
		}
	}
	// a.com appears both as an expansion of "a" and as a raw FQDN; the
	// global dedup keeps only the first occurrence.
	require.Equal(t, []string{"a.com", "a.io", "b.com", "b.io"}, fqdns)
}

func TestExpand_InvalidInputIsolation(t *testing.T) {
	t.Parallel()

	out := Expand([]string{"ok.com", "--bad", "also.ok"}, []string{"com"})
	require.Len(t, out, 3)
	require.Equal(t, "ok.com", out[0].FQDN)
	require.Nil(t, out[0].Error)
	require.Equal(t, "--bad", out[1].FQDN)
	require.NotNil(t, out[1].Error)
	require.Equal(t, "also.ok", out[2].FQDN)
	require.Nil(t, out[2].Error)
}
