package cli

import (
	"DocMCP/internal/config"

	"github.com/spf13/cobra"
)

// NewRootCmd 命令树根节点
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:          "DocMCP",
		Short:        "MCP server exposing document CRUD tools",
		SilenceUsage: true,
		Version:      version,
	}
	root.PersistentFlags().String("config", config.DefaultConfigPath, "Path to the TOML config file")

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewToolsCmd())
	root.AddCommand(NewCallCmd())
	root.AddCommand(NewTokenCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(path)
}
