package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vox2ksh/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent batch runs and chart results",
		Long: "Without flags, list the most recent batch runs. --run lists the chart results\n" +
			"of one run (an id prefix is enough); --failed lists failed charts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openHistory(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("history is disabled (paths.history_path is empty)")
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			p := newPalette(out)
			runCtx := cmd.Context()

			runID = strings.TrimSpace(runID)
			if runID == "" && !failedOnly {
				runs, err := store.RecentRuns(runCtx, limit)
				if err != nil {
					return err
				}
				printRuns(out, runs, p)
				return nil
			}

			if runID != "" {
				resolved, err := resolveRunID(cmd, store, runID)
				if err != nil {
					return err
				}
				runID = resolved
			}
			results, err := store.Results(runCtx, history.ResultFilter{
				RunID:      runID,
				FailedOnly: failedOnly,
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			printResults(out, results, p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only list failed charts")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of rows")
	cmd.Flags().StringVar(&runID, "run", "", "List the results of one run")
	return cmd
}

// resolveRunID accepts a full id or a unique prefix of a recent run.
func resolveRunID(cmd *cobra.Command, store *history.Store, id string) (string, error) {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return "", err
	}
	if run != nil {
		return run.ID, nil
	}
	runs, err := store.RecentRuns(cmd.Context(), 100)
	if err != nil {
		return "", err
	}
	var match string
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("run id %q is ambiguous", id)
		}
		match = r.ID
	}
	if match == "" {
		return "", fmt.Errorf("run %q not found", id)
	}
	return match, nil
}

func printRuns(out io.Writer, runs []history.Run, p palette) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No batch runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.Time(run.StartedAt),
			p.kind(runStatusKind(run.Status), string(run.Status)),
			strconv.Itoa(run.Converted),
			strconv.Itoa(run.Failed),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Warnings),
			formatDuration(run.Elapsed()),
			run.Filters,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		textCol("Run"), textCol("Started"), textCol("Status"),
		numCol("Converted"), numCol("Failed"), numCol("Skipped"), numCol("Warnings"), numCol("Elapsed"),
		textCol("Filters"),
	}, rows))
}

func printResults(out io.Writer, results []history.Result, p palette) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No chart results recorded")
		return
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		detail := res.Message
		if res.Status == history.StatusConverted {
			detail = fmt.Sprintf("%s (%s)", res.OutputPath, humanize.Bytes(uint64(max(res.OutputBytes, 0))))
		}
		rows = append(rows, []string{
			shortID(res.RunID),
			res.ChartID,
			p.kind(resultStatusKind(res.Status), string(res.Status)),
			res.ErrorKind,
			strconv.Itoa(res.Warnings),
			formatDuration(res.Duration),
			humanize.Time(res.RecordedAt),
			truncate(detail, messageWidth),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		textCol("Run"), textCol("Chart"), textCol("Status"), textCol("Kind"),
		numCol("Warnings"), numCol("Duration"),
		textCol("Recorded"), textCol("Detail"),
	}, rows))
}
