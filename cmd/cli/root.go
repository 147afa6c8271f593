package cli

import (
	"fmt"
	"os"

	"github.com/fika/fika-prep/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand once the root has run.
type app struct {
	configFile string
	debug      bool
	config     *config.Config
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fika-prep",
		Short: "Fika place-category preparation CLI",
		Long: `fika-prep classifies raw place-category labels into tourism buckets with a language model,
keeps the results in a resumable checkpoint and builds per-theme label lists for the trip planner.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: fika_config.yaml in ., ./config or $HOME/.fika)")
	rootCmd.PersistentFlags().String("output-dir", "", "Override OUTPUT_DIR")
	rootCmd.PersistentFlags().String("input", "", "Override INPUT_FILE")

	rootCmd.AddCommand(NewClassifyCommand(a))
	rootCmd.AddCommand(NewThemesCommand(a))
	rootCmd.AddCommand(NewStatusCommand(a))
	rootCmd.AddCommand(NewPublishCommand(a))
	rootCmd.AddCommand(NewServeCommand(a))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if a.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return err
	}

	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.OutputDir = dir
	}
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		cfg.InputFile = input
	}

	a.config = cfg
	return nil
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
