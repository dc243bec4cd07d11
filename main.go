package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matst80/flow-finder/pkg/config"
	"github.com/matst80/flow-finder/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "flowfinder",
		Short: "Content api for the flow and blog catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG_PATH)")
	rootCmd.AddCommand(serveCommand())
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath("")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
