// Package mcp implements the Model Context Protocol server for fhirval.
//
// The mcp package provides:
// - validate_resource: validate one resource from text or a file
// - list_profiles: the server's StructureDefinitions
package mcp
