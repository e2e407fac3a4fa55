package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/config"
	"github.com/dgnsrekt/asciitv/internal/logging"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "asciitv-client",
		Short: "Watch ASCII TV channels in the terminal",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config loading for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				logger = zap.NewNop()
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			// The terminal belongs to the picture, so logs go to a file.
			logCfg := cfg.Logging
			if logCfg.File == "" {
				logCfg.File = filepath.Join(os.TempDir(), "asciitv-client.log")
			}
			logger, err = logging.New(logCfg, verbose)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("ASCIITV_CONFIG"), "config file path (or set ASCIITV_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(watchCmd())

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
