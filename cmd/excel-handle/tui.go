package main

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wilnd/excel-handle/internal/config"
	"github.com/wilnd/excel-handle/internal/tui"
)

func newTUICmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [file1 file2]",
		Short: "Interactive terminal UI with a progress bar",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := st.resolveLabels()
			if err != nil {
				return err
			}

			output := labels.ResultName
			if _, err := config.EnsureDataDir(st.cfg); err == nil {
				output = config.GetDataPath(st.cfg, config.OutputsDir, labels.ResultName)
			}

			// 终端被界面占用，日志只在写文件时保留
			logger := zerolog.Nop()
			switch strings.ToLower(st.cfg.Log.Output) {
			case "", "stderr", "stdout":
			default:
				logger = st.logger
			}

			opts := tui.Options{
				Labels:        labels,
				DefaultOutput: output,
				Logger:        &logger,
			}
			if len(args) > 0 {
				opts.PlanPath = args[0]
			}
			if len(args) > 1 {
				opts.ActualPath = args[1]
			}
			return tui.Run(opts)
		},
	}
}
