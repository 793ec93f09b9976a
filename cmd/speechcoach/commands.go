package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"speech-coach-go/internal/actionable"
	"speech-coach-go/internal/aggregator"
	"speech-coach-go/internal/config"
	"speech-coach-go/internal/dataset"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/media"
	"speech-coach-go/internal/processor"
	"speech-coach-go/internal/transcript"
	"speech-coach-go/internal/types"
)

func newRootCmd(log *logger.Logger) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "speechcoach",
		Short:         "Delivery and content feedback for rehearsed talks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	build := func() (*processor.Processor, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		return processor.Build(cfg, log)
	}

	root.AddCommand(newAnalyzeCmd(build), newBatchCmd(build, log))
	return root
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeOutput(cmd *cobra.Command, path string, v any) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAnalyzeCmd(build func() (*processor.Processor, error)) *cobra.Command {
	var transcriptPath, outlinePath, scriptPath, videoPath, recordingURL, outPath string
	var duration float64

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one transcript file or recording",
		Example: "  speechcoach analyze --transcript talk.json --outline outline.md\n" +
			"  speechcoach analyze --recording https://cdn.example/talk.mp4 --script script.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (transcriptPath == "") == (recordingURL == "") {
				return fmt.Errorf("exactly one of --transcript or --recording is required")
			}
			outline, err := readOptional(outlinePath)
			if err != nil {
				return fmt.Errorf("read outline: %w", err)
			}
			script, err := readOptional(scriptPath)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			proc, err := build()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if duration <= 0 && videoPath != "" {
				if duration, err = (media.Prober{}).Duration(ctx, videoPath); err != nil {
					return fmt.Errorf("probe %s: %w", videoPath, err)
				}
			}

			if recordingURL != "" {
				res, err := proc.ProcessRecording(ctx, recordingURL, outline, script, duration)
				if werr := writeOutput(cmd, outPath, res); werr != nil {
					return werr
				}
				return err
			}

			tr, err := transcript.LoadFile(transcriptPath)
			if err != nil {
				return err
			}
			res, err := proc.Analyze(ctx, processor.Request{Transcript: tr, Outline: outline, Script: script, DurationHint: duration})
			if err != nil {
				return err
			}
			return writeOutput(cmd, outPath, struct {
				types.AnalysisResult
				Actions []actionable.ActionCard `json:"actions"`
			}{res, actionable.Generate(aggregator.Aggregate([]types.AnalysisResult{res}))})
		},
	}

	f := cmd.Flags()
	f.StringVar(&transcriptPath, "transcript", "", "transcript file (.json, .yaml or plain text)")
	f.StringVar(&recordingURL, "recording", "", "recording URL or path to transcribe first")
	f.StringVar(&outlinePath, "outline", "", "outline file")
	f.StringVar(&scriptPath, "script", "", "script file")
	f.StringVar(&videoPath, "video", "", "local video used to measure the duration")
	f.Float64Var(&duration, "duration", 0, "recording duration in seconds")
	f.StringVarP(&outPath, "out", "o", "", "write JSON here instead of stdout")
	return cmd
}

func newBatchCmd(build func() (*processor.Processor, error), log *logger.Logger) *cobra.Command {
	var inPath, outPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every rehearsal in a spreadsheet and write an xlsx report",
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := build()
			if err != nil {
				return err
			}
			records, err := dataset.Load(inPath, log.Component("dataset"))
			if err != nil {
				return err
			}
			if limit > 0 && limit < len(records) {
				records = records[:limit]
			}

			rows, results := runBatch(cmd.Context(), proc, records, log)
			ins := aggregator.Aggregate(results)
			cards := actionable.Generate(ins)
			if err := dataset.WriteReport(outPath, rows, ins, cards); err != nil {
				return err
			}
			log.WithField("rehearsals", len(rows)).WithField("report", outPath).Info("batch finished")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rehearsals, avg %.1f wpm)\n", outPath, len(rows), ins.AverageWPM)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&inPath, "in", "i", "rehearsals.xlsx", "input spreadsheet")
	f.StringVarP(&outPath, "out", "o", "report.xlsx", "output report")
	f.IntVar(&limit, "limit", 0, "only the first N rehearsals (0 = all)")
	return cmd
}

func runBatch(ctx context.Context, proc *processor.Processor, records []dataset.Rehearsal, log *logger.Logger) ([]dataset.ReportRow, []types.AnalysisResult) {
	rows := make([]dataset.ReportRow, 0, len(records))
	var results []types.AnalysisResult
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		row := dataset.ReportRow{Rehearsal: rec}
		rlog := log.Component("batch").WithField("rehearsal", rec.ID)

		var res types.AnalysisResult
		var err error
		if strings.TrimSpace(rec.Transcript) != "" {
			var tr transcript.Transcript
			if tr, err = rec.ParseTranscript(); err == nil {
				res, err = proc.Analyze(ctx, processor.Request{Transcript: tr, Outline: rec.Outline, Script: rec.Script, DurationHint: rec.DurationSec})
			}
		} else {
			var rr processor.RecordingResult
			rr, err = proc.ProcessRecording(ctx, rec.RecordingURL, rec.Outline, rec.Script, rec.DurationSec)
			if rr.Analysis != nil {
				res = *rr.Analysis
			}
		}

		if err != nil {
			rlog.WithField("error", err.Error()).Warn("rehearsal not analyzed")
			row.Error = err.Error()
		} else {
			row.Result = &res
			results = append(results, res)
		}
		rows = append(rows, row)
	}
	return rows, results
}
