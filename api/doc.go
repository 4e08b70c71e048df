// Package api validates FHIR resources against a remote server.
//
// The api package provides:
// - Batch ingestion of resource files with one pipeline per file (batch)
// - The $validate client and profile resolution (validation)
// - Severity tallies of validation outcomes (outcome)
// - An append-only result table with on-demand detail (result)
// - Profile listing from the server's StructureDefinitions (catalog)
// - Liquid rendering of outcomes for the terminal (render)
//
// Service ties these together for the cli and mcp packages.
package api
