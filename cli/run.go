package cli

import (
	"fmt"
	"os"

	"github.com/ka2n/fhirval/api"
	"github.com/ka2n/fhirval/log"
	"github.com/ka2n/fhirval/mcp"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Command line flags
	configFlag  string
	debugFlag   bool
	jsonFlag    bool
	plainFlag   bool
	profileOpt  profileFlag
	refreshFlag bool

	// Loaded in PersistentPreRunE
	cfg *Config

	// Root command
	rootCmd = &cobra.Command{
		Use:           "fhirval [files|dirs|globs|-]...",
		Short:         "Validate FHIR resources against a FHIR server",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `fhirval sends FHIR JSON resources to a server's $validate operation and
shows one row per resource with its error, warning and information counts.

Files are validated concurrently and rows appear as results arrive.
Files that are not valid JSON or fail to reach the server are skipped.

Examples:
  fhirval patient.json observation.json
  fhirval --profile http://example.org/StructureDefinition/my-patient ./bundle/
  cat patient.json | fhirval -`,
		PersistentPreRunE: setup,
		RunE:              runValidate,
	}

	// Version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print detailed version information about fhirval",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fhirval version %s\n", api.Version)
			if api.VersionCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", api.VersionCommit)
			}
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Config file (default ./fhirval.yaml or $XDG_CONFIG_HOME/fhirval/fhirval.yaml)")
	pf.BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	addConfigFlags(pf, &profileOpt)
	pf.BoolVar(&plainFlag, "plain", false, "Disable the interactive view and colors")

	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print one JSON object per row")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(mcp.Command(newService))
}

// addConfigFlags registers the flags that override config keys
func addConfigFlags(pf *pflag.FlagSet, profile *profileFlag) {
	pf.String("server", "", "FHIR server base URL")
	pf.String("root", "", "FHIR API root path on the server")
	pf.Var(profile, "profile", "StructureDefinition URL to validate against")
	pf.Duration("timeout", 0, "Timeout for each request to the server")
	pf.Int("concurrency", 0, "Maximum files validated at once (0 = unlimited)")
	pf.String("template", "", "Liquid template for the detail view")
	pf.Duration("cache-ttl", 0, "How long the profile list is cached")
	pf.String("viewer", "", "Visualiser URL opened for a result")
}

// Run executes the main CLI functionality
func Run() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	if debugFlag {
		log.SetDebug(true)
	}

	v, err := newViper(configFlag)
	if err != nil {
		return err
	}
	c, err := loadConfig(v, cmd.Flags(), &profileOpt)
	if err != nil {
		return err
	}
	cfg = c
	log.Debug("loaded config", "server", cfg.Server, "root", cfg.Root, "profile", cfg.Profile, "file", v.ConfigFileUsed())
	return nil
}

func newService() (*api.Service, error) {
	return api.NewService(cfg.Options())
}

// interactive reports whether stdout is a terminal and plain output was not requested
func interactive() bool {
	if plainFlag {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
