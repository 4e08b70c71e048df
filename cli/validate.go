package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ka2n/fhirval/api"
	"github.com/ka2n/fhirval/api/batch"
	"github.com/ka2n/fhirval/api/result"
	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	files, err := batch.Collect(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	switch {
	case jsonFlag:
		return streamJSON(cmd.Context(), svc, files, cmd.OutOrStdout())
	case interactive():
		return runTUI(cmd.Context(), svc, files, cfg.Viewer)
	default:
		return streamTable(cmd.Context(), svc, files, cmd.OutOrStdout())
	}
}

// newSpinner returns a spinner on stderr, or nil when stderr is not a terminal
func newSpinner(files int) *progressbar.ProgressBar {
	if plainFlag || !stderrIsTerminal() {
		return nil
	}
	pbar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
	)
	pbar.Describe(fmt.Sprintf("validating %d files", files))
	return pbar
}

func runBatch(ctx context.Context, svc *api.Service, files []batch.InputFile, onRow func(result.Row)) (*result.Sink, batch.Summary) {
	pbar := newSpinner(len(files))

	sink := svc.NewSink()
	unsubscribe := sink.Subscribe(onRow)
	defer unsubscribe()

	in := svc.NewIngestor(sink, func(e batch.Event) {
		if pbar != nil && e.State.Terminal() {
			_ = pbar.Add(1)
		}
	})
	summary := in.Run(ctx, files)

	if pbar != nil {
		_ = pbar.Clear()
	}
	return sink, summary
}

// streamTable prints rows as they arrive, then the full table
func streamTable(ctx context.Context, svc *api.Service, files []batch.InputFile, w io.Writer) error {
	sink, summary := runBatch(ctx, svc, files, func(r result.Row) {
		fmt.Fprintln(w, formatLine(r))
	})

	fmt.Fprintln(w)
	writeResults(w, sink.Rows(), plainFlag)
	if summary.Failed() > 0 {
		log.Debug("files skipped", "count", summary.Failed())
	}
	return nil
}

// streamJSON prints one JSON object per row and a final summary object
func streamJSON(ctx context.Context, svc *api.Service, files []batch.InputFile, w io.Writer) error {
	enc := json.NewEncoder(w)

	var encErr error
	_, summary := runBatch(ctx, svc, files, func(r result.Row) {
		if encErr == nil {
			encErr = enc.Encode(r)
		}
	})
	if encErr != nil {
		return failure.Wrap(encErr)
	}

	if err := enc.Encode(struct {
		Summary batch.Summary `json:"summary"`
	}{summary}); err != nil {
		return failure.Wrap(err)
	}
	return nil
}
