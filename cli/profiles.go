package cli

import (
	"encoding/json"

	"github.com/ka2n/fhirval/api/catalog"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the StructureDefinitions known to the server",
	Long: `List the profiles the server offers for validation. The list is cached;
use --refresh to fetch it again. An unreachable server lists no profiles.`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

func init() {
	profilesCmd.Flags().BoolVar(&refreshFlag, "refresh", false, "Ignore the cached profile list")
	profilesCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the profiles as JSON")
}

func runProfiles(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}

	profiles := svc.Catalog.Fallback(cmd.Context(), refreshFlag)

	if jsonFlag {
		if profiles == nil {
			profiles = []catalog.Profile{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(profiles); err != nil {
			return failure.Wrap(err)
		}
		return nil
	}

	writeProfiles(cmd.OutOrStdout(), profiles, plainFlag)
	return nil
}
