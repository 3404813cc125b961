package endpoints

// staticTable is the compiled-in TLD → structured-protocol base URL
// table, covering the common gTLDs whose
// RDAP base URL rarely changes. Anything not listed here falls through
// to the bootstrap fetch (source #3) when enabled.
var staticTable = map[string]string{
	"com": "https://rdap.verisign.com/com/v1",
	"net": "https://rdap.verisign.com/net/v1",
	"org": "https://rdap.publicinterestregistry.org/rdap",
	"io":  "https://rdap.nic.io",
	"dev": "https://www.googleapis.com/rdap/v1",
	"app": "https://www.googleapis.com/rdap/v1",
}

// StaticTable returns a copy of the compiled-in table; New uses it as a
// Registry's default static table.
func StaticTable() map[string]string {
	out := make(map[string]string, len(staticTable))
	for k, v := range staticTable {
		out[k] = v
	}
	return out
}
