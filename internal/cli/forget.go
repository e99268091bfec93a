package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newForgetCmd() *cobra.Command {
	var (
		historyOnly bool
		memoryOnly  bool
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "forget <user-id>",
		Short: "Delete a customer's conversation history and memory",
		Long: `Remove stored conversation data for one customer. Inquiries are kept.

Examples:
  bloomcart forget u42
  bloomcart forget u42 --memory-only
  bloomcart forget u42 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if historyOnly && memoryOnly {
				return fmt.Errorf("--history-only and --memory-only are mutually exclusive")
			}
			userID := args[0]
			out := cmd.OutOrStdout()

			if !yes && !confirmPrompt(cmd.InOrStdin(), out, fmt.Sprintf("Delete stored data for %s?", userID)) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}

			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := context.Background()

			switch {
			case historyOnly:
				n, err := rt.convs.ClearHistory(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d messages.\n", n)
			case memoryOnly:
				n, err := rt.convs.ClearMemory(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d memory entries.\n", n)
			default:
				cleared, err := rt.convs.ClearUser(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d messages and %d memory entries.\n", cleared.Messages, cleared.Memories)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&historyOnly, "history-only", false, "delete messages but keep memory")
	cmd.Flags().BoolVar(&memoryOnly, "memory-only", false, "delete memory but keep messages")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirmPrompt(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
