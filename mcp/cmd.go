package mcp

import (
	"github.com/ka2n/fhirval/api"
	"github.com/spf13/cobra"
)

// Command returns the MCP server command. newService is called once the
// command's configuration has been loaded.
func Command(newService func() (*api.Service, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Serve the validate_resource and list_profiles tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return NewServer(svc).Run()
		},
	}
}
