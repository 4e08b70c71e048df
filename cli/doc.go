// Package cli implements the command-line interface for fhirval.
//
// The cli package provides:
// - Layered configuration from file, environment and flags
// - A live result table while a batch is validated
// - Plain, table and JSON lines output for pipes
// - A detail pager with severity filters and search
// - Opening a result in the server's visualiser
package cli
