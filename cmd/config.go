package cmd

import (
	"fmt"

	"github.com/jjtimmons/breakend/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd is for printing the effective settings
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the settings in effect",
	Long: `Print the settings in effect as YAML.

Settings are the defaults overridden by the settings file (--config, or
$HOME/.breakend/settings.yaml), then BREAKEND_ env vars (eg
BREAKEND_ANCHOR_MAX_INDEL=5) and then flags. The output can be used as a
settings file.`,
	Args: cobra.NoArgs,
	RunE: configExec,
}

func init() {
	RootCmd.AddCommand(configCmd)
}

func configExec(cmd *cobra.Command, args []string) error {
	conf, err := config.New()
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(conf)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
