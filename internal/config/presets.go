package config

// Named TLD presets ("preset" option), supplementing the bare
// tlds list. Kept as plain data so adding a preset never touches the
// engine's control flow.
var namedPresets = map[string][]string{
	"startup": {
		"com", "io", "co", "app", "dev", "ai", "so",
	},
	"enterprise": {
		"com", "net", "org", "inc", "group", "llc",
	},
	"cctld": {
		"us", "uk", "de", "fr", "ca", "au", "jp", "eu",
	},
}

// Preset returns the TLD list for a named preset, or nil if unknown.
func Preset(name string) []string {
	return namedPresets[name]
}

// AllKnownTLDs returns the fixed TLD list used when AllTLDs is set. It
// is its own list, not internal/endpoints.StaticTable: it also holds
// TLDs (including ccTLDs) that the static table does not map, which
// then resolve through bootstrap or textual fallback.
func AllKnownTLDs() []string {
	return []string{
		"com", "net", "org", "io", "co", "dev", "app", "ai", "so",
		"info", "biz", "us", "uk", "de", "fr", "ca", "au", "jp", "eu",
		"xyz", "me", "tv", "cc", "name", "online", "site", "tech",
	}
}
