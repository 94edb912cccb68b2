// Package main provides the entry point for the osfp CLI.
//
// osfp reconciles operating-system fingerprint data from network scan
// reports into one queryable result per host: declared OS matches,
// attributed OS classes, raw fingerprint probes, and the ports
// fingerprinting used.
//
// Usage:
//
//	osfp reconcile <report-file>
//	osfp history --host <host>
//
// See --help for all available options.
package main

// main is the entry point for osfp.
func main() {
	Execute()
}
