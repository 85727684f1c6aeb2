// Package cli implements the command-line interface for park-fees.
//
// The cli package provides the Cobra-based CLI with commands to look up a
// single park or trail, verify every row of a CSV file, and serve the lookup
// over HTTP. It loads configuration, wires the search client, page fetcher
// and lookup service together, and formats results as text or JSON.
package cli
