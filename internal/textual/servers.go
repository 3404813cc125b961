package textual

// servers is the compiled-in TLD → WHOIS (port 43) host table used for
// server selection; any TLD not listed here yields NoTextualServer.
var servers = map[string]string{
	"com": "whois.verisign-grs.com",
	"net": "whois.verisign-grs.com",
	"org": "whois.pir.org",
	"io":  "whois.nic.io",
	"dev": "whois.nic.google",
	"app": "whois.nic.google",
}

// Servers returns a copy of the compiled-in table.
func Servers() map[string]string {
	out := make(map[string]string, len(servers))
	for k, v := range servers {
		out[k] = v
	}
	return out
}
