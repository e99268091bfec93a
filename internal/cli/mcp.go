package cli

import (
	"github.com/spf13/cobra"

	"github.com/bloomcart/bloomcart/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
chat, get_context, get_history, lookup_inquiry and list_user_inquiries
tools. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := mcp.NewServer(mcp.Deps{
				Assistant: rt.assistant,
				Builder:   rt.builder,
				History:   rt.convs,
				Inquiries: rt.inquiries,
				Logger:    rt.log,
			}, version)
			return srv.ServeStdio()
		},
	}
}
