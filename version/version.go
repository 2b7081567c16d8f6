// Package version holds build-time identity for the router: Name and
// Vers are printed in the CLI banner, and FRDPVersion is carried in
// every FRDP line the router sends.
package version

// Name is the software name printed in the CLI banner.
const Name = "frankenrouter"

// Vers is the router's own release version. It is distinct from the
// FRDP protocol version (see FRDPVersion below), which changes far
// less often.
var Vers = "0.1.0-dev"

// FRDPVersion is the peer-discovery sub-protocol version carried in
// every addon=FRANKENROUTER:<version>:... line.
const FRDPVersion = "1.2.0"
