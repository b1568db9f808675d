package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"DocMCP/internal/config"
	"DocMCP/pkg/util/myjwt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:3000/mcp"

// NewToolsCmd 通过 MCP 客户端列出远端工具
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by a running server",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}
	addClientFlags(cmd)
	return cmd
}

// NewCallCmd 通过 MCP 客户端调用一个工具并打印文本结果
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool on a running server and print its text result",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}
	addClientFlags(cmd)
	cmd.Flags().String("args", "{}", "Tool arguments as a JSON object")
	return cmd
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", defaultServerURL, "Streamable HTTP endpoint of the server")
	cmd.Flags().String("token", "", "Bearer token (minted from jwtConfig.key when empty and a key is configured)")
}

func connect(cmd *cobra.Command) (*client.Client, error) {
	url, _ := cmd.Flags().GetString("url")
	token, _ := cmd.Flags().GetString("token")

	if token == "" {
		if conf, err := loadConfig(cmd); err == nil {
			token = mintLocalToken(conf)
		}
	}

	var opts []transport.StreamableHTTPCOption
	if token != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{"Authorization": "Bearer " + token}))
	}
	c, err := client.NewStreamableHttpClient(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	ctx := cmd.Context()
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start client: %w", err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "docmcp-cli", Version: cmd.Root().Version}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return c, nil
}

func mintLocalToken(conf *config.Config) string {
	signer := myjwt.NewSigner(conf.JwtConfig, conf.MainConfig.AppName)
	if !signer.Enabled() {
		return ""
	}
	token, err := signer.GenerateToken("docmcp-cli", "tools")
	if err != nil {
		return ""
	}
	return token
}

func runTools(cmd *cobra.Command, _ []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.ListTools(cmd.Context(), mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREQUIRED\tDESCRIPTION")
	for _, t := range res.Tools {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, strings.Join(t.InputSchema.Required, ","), t.Description)
	}
	return w.Flush()
}

func runCall(cmd *cobra.Command, args []string) error {
	rawArgs, _ := cmd.Flags().GetString("args")
	toolArgs, err := parseToolArgs(rawArgs)
	if err != nil {
		return err
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	text, err := callTool(cmd.Context(), c, args[0], toolArgs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func parseToolArgs(raw string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	return out, nil
}

func callTool(ctx context.Context, c *client.Client, name string, args map[string]interface{}) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	return resultText(res), nil
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
