package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilnd/excel-handle/internal/server"
	"github.com/wilnd/excel-handle/internal/util"
)

const sweepInterval = time.Hour

func newServeCmd(st *cliState) *cobra.Command {
	var (
		port      int
		devMode   bool
		dataDir   string
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := st.cfg
			log := st.logger

			// config.toml 中显式配置的端口优先
			if port > 0 && !st.info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}
			if noBrowser {
				cfg.Server.OpenBrowser = false
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "==========================================")
			fmt.Fprintln(out, "  excel-handle - upload plan reconciliation")
			fmt.Fprintln(out, "==========================================")

			srv, err := server.NewServer(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go srv.RunSweeper(ctx, sweepInterval)

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := util.LocalURL(cfg.Server.Port)

			errCh := make(chan error, 1)
			go func() {
				log.Info().Int("port", cfg.Server.Port).Msg("server listening")
				errCh <- srv.Run(addr)
			}()

			if !cfg.Server.DevMode && cfg.Server.OpenBrowser {
				fmt.Fprintf(out, "Opening browser: %s\n", url)
				if err := util.OpenBrowserWithFallback(url); err != nil {
					fmt.Fprintf(out, "Could not open a browser, visit %s manually\n", url)
				}
			} else {
				fmt.Fprintf(out, "Visit %s\n", url)
			}
			fmt.Fprintln(out, "\nPress Ctrl+C to stop...")

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
			}

			fmt.Fprintln(out, "\nShutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&port, "port", 0, "listen port (ignored when config.toml sets one)")
	flags.BoolVar(&devMode, "dev", false, "development mode: debug gin logs, no browser")
	flags.StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")
	flags.BoolVar(&noBrowser, "no-browser", false, "do not open a browser on start")
	return cmd
}
