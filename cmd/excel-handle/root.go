package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wilnd/excel-handle/internal/config"
	"github.com/wilnd/excel-handle/internal/logging"
	"github.com/wilnd/excel-handle/internal/reconcile"
)

// cliState 子命令共享的配置与日志
type cliState struct {
	configPath string
	labels     string
	logLevel   string
	logFormat  string

	cfg      *config.AppConfig
	info     config.LoadConfigInfo
	logger   zerolog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	st := &cliState{closeLog: func() error { return nil }}

	root := &cobra.Command{
		Use:   "excel-handle",
		Short: "Reconcile an upload plan against the actual uploads",
		Long: `excel-handle matches the rows of an upload plan (file 1) against an
actual-upload spreadsheet (file 2). File 2 is saved with a data source column,
planned rows with a file number are filled yellow and those without one orange.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return st.closeLog()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&st.configPath, "config", "", "config file (default: config.toml next to the executable)")
	flags.StringVar(&st.labels, "labels", "", "column label set: en or zh (overrides config)")
	flags.StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&st.logFormat, "log-format", "", "log format: auto, console, json")

	root.AddCommand(
		newReconcileCmd(st),
		newServeCmd(st),
		newTUICmd(st),
		newConfigCmd(st),
	)
	return root
}

// load 读取配置并按命令行参数覆盖，然后初始化日志
func (st *cliState) load(cmd *cobra.Command) error {
	cfg, info, err := config.LoadConfigWithInfo(st.configPath)
	if err != nil {
		cmd.PrintErrf("failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{Path: info.Path}
	}

	if st.labels != "" {
		cfg.Reconcile.Labels = st.labels
	}
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}
	if st.logFormat != "" {
		cfg.Log.Format = st.logFormat
	}

	st.cfg = cfg
	st.info = info
	st.logger, st.closeLog = logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		NoColor: os.Getenv("NO_COLOR") != "",
	})
	if info.Found {
		st.logger.Debug().Str("path", info.Path).Msg("config loaded")
	}
	return nil
}

func (st *cliState) resolveLabels() (reconcile.Labels, error) {
	return reconcile.LookupLabels(st.cfg.Reconcile.Labels)
}
