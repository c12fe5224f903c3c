package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/wordmaster/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is shared by every subcommand
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "wordmaster",
		Short:         "Adaptive vocabulary trainer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = cfg.Logger(os.Stderr)
			slog.SetDefault(a.log)
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newProgressCmd(a),
		newResetCmd(a),
	)
	return root
}
