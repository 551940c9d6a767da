package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/captions"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	captionsCmd := &cobra.Command{
		Use:   "captions",
		Short: "Caption engine tooling",
	}
	captionsCmd.AddCommand(newCaptionsAlignCommand(ctx))
	return captionsCmd
}

func newCaptionsAlignCommand(ctx *commandContext) *cobra.Command {
	var (
		scriptPath string
		outputPath string
		duration   float64
		maxChars   int
		maxCueSecs float64
		maxLines   int
		karaoke    bool
	)

	cmd := &cobra.Command{
		Use:   "align <timings.json>",
		Short: "Align a script against word timings and emit SRT captions",
		Long: `Align runs the caption engine directly on a timings document
(word observations as produced by the narration stage) and a script
file, writing SRT to the output path or stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := captions.LoadTimings(args[0])
			if err != nil {
				return fmt.Errorf("load timings: %w", err)
			}

			if strings.TrimSpace(scriptPath) == "" {
				return fmt.Errorf("--script is required")
			}
			scriptBytes, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			script := strings.TrimSpace(string(scriptBytes))
			if script == "" {
				return fmt.Errorf("script file %s is empty", scriptPath)
			}

			total := doc.Duration
			if duration > 0 {
				total = duration
			}
			if total <= 0 {
				return fmt.Errorf("timings document carries no duration; pass --duration")
			}

			opts := alignOptions(ctx, maxChars, maxCueSecs, maxLines, karaoke)
			cues, report, err := captions.Run(doc.Observations, script, total, opts)
			if err != nil {
				return fmt.Errorf("align: %w", err)
			}
			if len(cues) == 0 {
				return fmt.Errorf("alignment produced no cues")
			}

			rendered := captions.Export(cues)
			stdout := cmd.OutOrStdout()
			if strings.TrimSpace(outputPath) == "" {
				fmt.Fprint(stdout, rendered)
			} else {
				if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
					return fmt.Errorf("write captions: %w", err)
				}
				fmt.Fprintf(stdout, "Wrote %d cues to %s\n", len(cues), outputPath)
			}

			fmt.Fprintf(cmd.ErrOrStderr(),
				"words=%d matched=%d lookahead=%d estimated=%d avg_confidence=%.3f clamped=%s\n",
				report.Words, report.Matched, report.Lookahead, report.Estimated,
				report.AverageConfidence, yesNo(report.DurationClamped),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the script text file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "SRT output path (stdout when omitted)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Audio duration in seconds (overrides the document)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Character budget per cue line")
	cmd.Flags().Float64Var(&maxCueSecs, "max-cue-duration", 0, "Maximum cue display time in seconds")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Lines per cue (1 or 2)")
	cmd.Flags().BoolVar(&karaoke, "karaoke", false, "Emit per-word highlight windows")
	return cmd
}

// alignOptions starts from the configured caption settings and applies any
// explicit flag overrides.
func alignOptions(ctx *commandContext, maxChars int, maxCueSecs float64, maxLines int, karaoke bool) captions.Options {
	opts := captions.DefaultOptions()
	if cfg := ctx.configValue(); cfg != nil {
		opts = captions.Options{
			MaxCharsPerLine: cfg.Captions.MaxCharsPerLine,
			MaxCueDuration:  cfg.Captions.MaxCueDuration,
			MaxLinesPerCue:  cfg.Captions.MaxLinesPerCue,
			Lookahead:       cfg.Captions.Lookahead,
			SmoothingGap:    cfg.Captions.SmoothingGap,
			Karaoke:         cfg.Captions.Karaoke,
		}
	}
	if maxChars > 0 {
		opts.MaxCharsPerLine = maxChars
	}
	if maxCueSecs > 0 {
		opts.MaxCueDuration = maxCueSecs
	}
	if maxLines > 0 {
		opts.MaxLinesPerCue = maxLines
	}
	if karaoke {
		opts.Karaoke = true
	}
	return opts
}
