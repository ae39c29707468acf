package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/util"
)

func newReconcileCmd(st *cliState) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reconcile [file1 file2 output]",
		Short: "Annotate file 2 with the matching rows of the upload plan",
		Long: `Reads the upload plan (file 1) and the actual uploads (file 2), writes a copy
of file 2 to the output path with a data source column and row fills.
Missing arguments are asked for on stdin; ".xlsx" is appended to the output
path when it has no such extension.`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("invalid format: %s (must be text, json, or yaml)", format)
			}

			labels, err := st.resolveLabels()
			if err != nil {
				return err
			}

			paths, err := promptPaths(cmd.InOrStdin(), cmd.ErrOrStderr(), args, labels.ResultName)
			if err != nil {
				return err
			}
			for i, p := range paths[:2] {
				if _, err := os.Stat(p); err != nil {
					return fmt.Errorf("file %d not found: %s", i+1, p)
				}
			}

			res, err := reconcile.Run(reconcile.Options{
				PlanPath:   paths[0],
				ActualPath: paths[1],
				OutputPath: paths[2],
				Labels:     labels,
				Progress:   progressReporter(cmd.ErrOrStderr(), st.logger),
				Logger:     &st.logger,
			})
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "summary format: text, json, yaml")
	return cmd
}

// promptPaths 补齐缺少的三个路径：文件1、文件2、输出
func promptPaths(in io.Reader, out io.Writer, args []string, defaultOutput string) ([3]string, error) {
	var paths [3]string
	copy(paths[:], args)

	prompts := [3]string{
		"File 1 (upload plan) path: ",
		"File 2 (actual uploads) path: ",
		fmt.Sprintf("Output path [%s]: ", defaultOutput),
	}

	reader := bufio.NewReader(in)
	for i := len(args); i < len(paths); i++ {
		fmt.Fprint(out, prompts[i])
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return paths, err
		}
		value := util.CleanInputPath(line)
		if i < 2 && value == "" {
			return paths, fmt.Errorf("file %d path is required", i+1)
		}
		paths[i] = value
	}

	paths[0] = util.CleanInputPath(paths[0])
	paths[1] = util.CleanInputPath(paths[1])
	paths[2] = util.OutputPath(util.CleanInputPath(paths[2]), defaultOutput)
	return paths, nil
}

// progressReporter 终端上原地刷新一行进度；非终端时按 10% 记日志
func progressReporter(w io.Writer, logger zerolog.Logger) reconcile.ProgressFunc {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return func(percent int, message string) {
			fmt.Fprintf(w, "\r[%3d%%] %-60.60s", percent, message)
			if percent >= 100 {
				fmt.Fprintln(w)
			}
		}
	}

	lastBucket := -1
	return func(percent int, message string) {
		if bucket := percent / 10; bucket != lastBucket {
			lastBucket = bucket
			logger.Info().Int("percent", percent).Msg(message)
		}
	}
}

func writeResult(w io.Writer, res *reconcile.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(res)
	}

	fmt.Fprintln(w, "Reconcile finished")
	fmt.Fprintf(w, "  yellow rows (file number present): %d\n", res.YellowCount)
	fmt.Fprintf(w, "  orange rows (file number missing): %d\n", res.OrangeCount)
	fmt.Fprintf(w, "  pending upload (planned rows):     %d\n", res.PlannedCount)
	fmt.Fprintf(w, "  plan entries: %d, data rows: %d, exact: %d, prefix: %d\n",
		res.PlanEntries, res.DataRows, res.ExactMatches, res.PrefixMatches)
	fmt.Fprintf(w, "  saved to %s (%s)\n", res.OutputPath, res.Duration.Round(time.Millisecond))
	return nil
}
