package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/x-mcp/internal/config"
)

var configDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  configAction,
}

func init() {
	configCmd.Flags().BoolVar(&configDefaults, "defaults", false, "print built-in defaults instead of the loaded config")
	rootCmd.AddCommand(configCmd)
}

func configAction(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if !configDefaults {
		loaded, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
