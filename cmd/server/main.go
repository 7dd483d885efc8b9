package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	apihttp "github.com/GriffinCanCode/MoltOS/backend/internal/api/http"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/server"
)

type flags struct {
	port     string
	host     string
	storage  string
	logLevel string
	dev      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:          "moltos-server",
		Short:        "MoltOS desktop shell backend",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Version:      apihttp.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.port, "port", "", "HTTP port (overrides PORT)")
	pf.StringVar(&f.host, "host", "", "listen address (overrides HOST)")
	pf.StringVar(&f.storage, "storage", "", "state directory (overrides STORAGE_DIR)")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.BoolVar(&f.dev, "dev", false, "development mode: colored debug logs, gin debug mode")

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	return root
}

// loadConfig reads the environment, then applies flags that were set
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("storage") {
		cfg.Storage.Dir = f.storage
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("dev") {
		cfg.Logging.Development = f.dev
		if f.dev && !changed("log-level") {
			cfg.Logging.Level = "debug"
		}
	}
	return cfg, cfg.Validate()
}
