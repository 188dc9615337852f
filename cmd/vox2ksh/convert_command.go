package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vox2ksh/internal/convert"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var toStdout bool
	var compact bool
	var strict bool
	var songDir string

	cmd := &cobra.Command{
		Use:   "convert <file.vox>",
		Short: "Convert a single VOX chart",
		Long: "Convert one chart file named GGG_SSSS_name_Nd.vox. The chart is written to\n" +
			"<out_dir>/<song>/chart_<difficulty>.ksh unless --stdout is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if compact {
				cfg.Convert.Compact = true
			}
			if strict {
				cfg.Convert.Strict = true
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			src, err := convert.ParseSource(args[0])
			if err != nil {
				return err
			}
			conv, err := ctx.newConverter(cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if toStdout {
				rendered, err := conv.Render(cmd.Context(), src)
				if err != nil {
					return fmt.Errorf("convert %s: %w", src.ChartID(), err)
				}
				_, err = out.Write(rendered.KSH)
				return err
			}

			res, err := conv.Convert(cmd.Context(), src, songDir)
			if err != nil {
				return fmt.Errorf("convert %s: %w", src.ChartID(), err)
			}
			fmt.Fprintf(out, "Wrote %s (%s, %d %s)\n",
				res.OutputPath,
				humanize.Bytes(uint64(res.Bytes)),
				res.Warnings,
				pluralize(res.Warnings, "warning", "warnings"),
			)
			for _, name := range res.Media {
				fmt.Fprintf(out, "Copied %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the KSH chart to stdout instead of the output directory")
	cmd.Flags().BoolVar(&compact, "compact", false, "Collapse measures to the coarsest step that keeps every event")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on anything the reader would only warn about")
	cmd.Flags().StringVar(&songDir, "song-dir", "", "Song directory name below out_dir (default: ascii name from the music database)")
	return cmd
}
