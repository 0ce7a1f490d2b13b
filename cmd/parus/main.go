// Command parus is the Parus compiler toolchain CLI (spec §6): a cobra
// command tree dispatching into the front-end, SIR, OIR, and parlib
// components documented in the internal packages.
package main

import "os"

func main() {
	os.Exit(Execute())
}
