// Command domaincheck checks whether domains are registered, via RDAP
// and WHOIS, from the command line or as an HTTP/WebSocket service.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
