package cli

import (
	"fmt"

	"github.com/ka2n/fhirval/api/batch"
	"github.com/ka2n/fhirval/api/render"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var (
	severityFlag string
	sourceFlag   bool
	openFlag     bool

	detailCmd = &cobra.Command{
		Use:   "detail <file>",
		Short: "Validate one resource and show every issue",
		Long: `Validate a single resource and show the full OperationOutcome rendered
through the detail template. Use - to read the resource from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runDetail,
	}
)

func init() {
	detailCmd.Flags().StringVar(&severityFlag, "severity", "", "Only show issues of this severity (error, warning, info)")
	detailCmd.Flags().BoolVar(&sourceFlag, "source", false, "Show the resource source instead of the outcome")
	detailCmd.Flags().BoolVar(&openFlag, "open", false, "Open the result in the visualiser")
}

func runDetail(cmd *cobra.Command, args []string) error {
	filter, err := render.ParseFilter(severityFlag)
	if err != nil {
		return err
	}

	files, err := batch.Collect(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(files) != 1 {
		return failure.New(InvalidArguments,
			failure.Message("detail takes exactly one file"),
			failure.Context{"files": fmt.Sprint(len(files))},
		)
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	row, err := svc.ValidateOne(cmd.Context(), files[0])
	if err != nil {
		return err
	}

	if openFlag {
		return openViewer(cfg.Viewer, row.ValidateURL)
	}

	title := "Source: " + row.FileName
	content := row.SourceText
	if !sourceFlag {
		title = detailTitle(row, filter)
		content, _, err = svc.Detail(cmd.Context(), svc.NewSink(), row, filter, 100, !interactive())
		if err != nil {
			return err
		}
	}

	if interactive() {
		return RunPager(title, content)
	}
	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}
