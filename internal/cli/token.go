package cli

import (
	"fmt"

	"DocMCP/pkg/util/myjwt"

	"github.com/spf13/cobra"
)

// NewTokenCmd 用配置中的 jwt key 签发调用令牌
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the MCP and /api routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			scope, _ := cmd.Flags().GetString("scope")

			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			token, err := myjwt.NewSigner(conf.JwtConfig, conf.MainConfig.AppName).GenerateToken(subject, scope)
			if err != nil {
				return fmt.Errorf("mint token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "docmcp-client", "Token subject")
	cmd.Flags().String("scope", "tools", "Token scope claim")
	return cmd
}
