package textual

import (
	"strings"

	"go.domaincheck.dev/checker/internal/model"
)

// findValue scans the WHOIS body for a "Key: value" line (case-insensitive
// key match, tolerant of surrounding whitespace).
func findValue(body string, keys []string) string {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	for _, line := range strings.Split(body, "\n") {
		l := strings.TrimSpace(line)
		if l == "" {
			continue
		}
		idx := strings.IndexByte(l, ':')
		if idx <= 0 {
			continue
		}
		left := strings.ToLower(strings.TrimSpace(l[:idx]))
		right := strings.TrimSpace(l[idx+1:])
		if _, ok := keySet[left]; ok {
			return right
		}
	}
	return ""
}

// findAllValues collects every value for any of the given keys, for
// multi-value fields like "Name Server" and "Domain Status".
func findAllValues(body string, keys []string) []string {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	var out []string
	for _, line := range strings.Split(body, "\n") {
		l := strings.TrimSpace(line)
		idx := strings.IndexByte(l, ':')
		if idx <= 0 {
			continue
		}
		left := strings.ToLower(strings.TrimSpace(l[:idx]))
		if _, ok := keySet[left]; !ok {
			continue
		}
		right := strings.TrimSpace(l[idx+1:])
		if right != "" {
			out = append(out, right)
		}
	}
	return out
}

// parseRegistration extracts the registration fields via line-oriented
// key/value parsing, accumulating multi-value keys into sets.
func parseRegistration(body string) *model.Registration {
	reg := &model.Registration{}

	reg.Registrar = findValue(body, []string{"Registrar", "Sponsoring Registrar"})
	reg.CreationDate = findValue(body, []string{"Creation Date", "Created On", "Registered", "Registration Date"})
	reg.UpdatedDate = findValue(body, []string{"Updated Date", "Last Updated On", "Last Modified"})
	reg.ExpiryDate = findValue(body, []string{
		"Registry Expiry Date", "Expiration Date", "Expiry Date", "Expires", "Registrar Registration Expiration Date",
	})

	for _, v := range findAllValues(body, []string{"Domain Status", "Status"}) {
		reg.StatusCodes = append(reg.StatusCodes, strings.Fields(v)[0])
	}
	for _, v := range findAllValues(body, []string{"Name Server", "Nameserver", "Nameservers"}) {
		reg.NameServers = append(reg.NameServers, strings.ToLower(v))
	}

	reg.StatusCodes = dedup(reg.StatusCodes)
	reg.NameServers = dedup(reg.NameServers)

	return reg
}

func dedup(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
