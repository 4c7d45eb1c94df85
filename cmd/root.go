// Package cmd is for command line interactions with the breakend application
package cmd

import (
	"github.com/jjtimmons/breakend/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// settingsPath is the --config flag
var settingsPath string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "breakend",
	Short: `Assemble consensus contigs across structural variant breakpoints
and anchor them to the reference`,
	Long: `Assemble consensus contigs across structural variant breakpoints
and anchor them to the reference.

Overlapping fragments are merged into contigs, tolerating copy number
jitter in short tandem repeats. Contigs that share supporting fragments
are phased together. The split alignment of each contig is reduced to the
trusted alignment on either side of its junction.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Setup(settingsPath)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fail(zap.Must(zap.NewProduction()), err)
	}
}

// fail logs the error that ended a command and exits
func fail(logger *zap.Logger, err error) {
	logger.Fatal("command failed", zap.Error(err))
}

func init() {
	RootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "settings file (default is $HOME/.breakend/settings.yaml)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "whether to log debug output")
	RootCmd.PersistentFlags().IntP("workers", "w", 0, "contigs processed at once (default GOMAXPROCS)")
	RootCmd.PersistentFlags().Bool("strict", false, "fail on the first contig error rather than skip the contig")

	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("pipeline.workers", RootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("pipeline.strict", RootCmd.PersistentFlags().Lookup("strict"))
}

// setup returns the settings and a logger for a command. The logger
// should be synced when the command exits
func setup() (*config.Config, *zap.Logger, error) {
	conf, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	logConf := zap.NewProductionConfig()
	if conf.Verbose {
		logConf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logConf.Build()
	if err != nil {
		return nil, nil, err
	}
	return conf, logger, nil
}
