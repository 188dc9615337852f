package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"vox2ksh/internal/batch"
	"vox2ksh/internal/chart"
	"vox2ksh/internal/history"
	"vox2ksh/internal/preflight"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var songID int
	var difficulty string
	var testcase string
	var workers int
	var clean bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert every chart in the VOX directory",
		Long: "Discover GGG_SSSS_name_Nd.vox files in vox_dir and convert them on a worker pool.\n" +
			"A later game version of the same song and difficulty replaces an earlier one.\n" +
			"Test cases: " + strings.Join(batch.TestcaseNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			filter := batch.Filter{SongID: songID, Testcase: strings.TrimSpace(testcase)}
			if strings.TrimSpace(difficulty) != "" {
				filter.Difficulty = chart.ParseDifficulty(difficulty)
				if filter.Difficulty == chart.DifficultyUnknown {
					return fmt.Errorf("unknown difficulty %q (want novice, advanced, exhaust, infinite or maximum)", difficulty)
				}
			}

			if strict {
				cfg.Convert.Strict = true
			}
			if blocking := preflight.Blocking(preflight.RunAll(cfg)); len(blocking) > 0 {
				return preflightError(blocking)
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			conv, err := ctx.newConverter(cfg, logger)
			if err != nil {
				return err
			}
			store, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			opts := batch.Options{Filter: filter, Workers: workers, Clean: clean}
			if errOut, ok := cmd.ErrOrStderr().(*os.File); ok && isTerminal(errOut) {
				opts.Progress = errOut
			}

			summary, runErr := batch.NewRunner(cfg, conv, store, logger).Run(cmd.Context(), opts)
			if summary == nil {
				return runErr
			}
			printBatchSummary(cmd.OutOrStdout(), summary, newPalette(cmd.OutOrStdout()))
			if runErr != nil {
				return runErr
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d charts failed", summary.Failed, summary.Total())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&songID, "song-id", 0, "Convert only this song id")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Convert only this difficulty (n/a/e/i/m or name)")
	cmd.Flags().StringVar(&testcase, "testcase", "", "Convert a named test chart")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count (default: convert.workers)")
	cmd.Flags().BoolVar(&clean, "clean", false, "Empty the output directory before converting")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail charts on anything the reader would only warn about")
	return cmd
}

func printBatchSummary(out io.Writer, summary *batch.Summary, p palette) {
	var problems []history.Result
	for _, res := range summary.Results {
		if res.Status != history.StatusConverted {
			problems = append(problems, res)
		}
	}
	slices.SortFunc(problems, func(a, b history.Result) int {
		return strings.Compare(a.ChartID, b.ChartID)
	})

	if len(problems) > 0 {
		rows := make([][]string, 0, len(problems))
		for _, res := range problems {
			rows = append(rows, []string{
				res.ChartID,
				p.kind(resultStatusKind(res.Status), string(res.Status)),
				res.ErrorKind,
				truncate(res.Message, messageWidth),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]column{textCol("Chart"), textCol("Status"), textCol("Kind"), textCol("Message")},
			rows,
		))
	}

	status := p.kind(runStatusKind(summary.Status), string(summary.Status))
	fmt.Fprintf(out, "Run %s %s: %d converted, %s, %d skipped, %d %s in %s\n",
		shortID(summary.RunID),
		status,
		summary.Converted,
		p.kind(failedKind(summary.Failed), fmt.Sprintf("%d failed", summary.Failed)),
		summary.Skipped,
		summary.Warnings,
		pluralize(summary.Warnings, "warning", "warnings"),
		formatDuration(summary.Elapsed),
	)
	if summary.RunLogPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", summary.RunLogPath)
	}
}

const messageWidth = 72

func failedKind(failed int) statusKind {
	if failed > 0 {
		return statusError
	}
	return statusOK
}
