package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bloomcart/bloomcart/internal/conversation"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		showMemory bool
	)

	cmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "Show a customer's conversation and remembered preferences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := context.Background()
			out := cmd.OutOrStdout()
			if limit <= 0 {
				limit = rt.cfg.Chat.ReplayLimit
			}

			msgs, err := rt.convs.GetHistory(ctx, args[0], limit)
			if err != nil {
				return err
			}
			printHistory(out, msgs)

			if showMemory {
				mem, err := rt.convs.GetMemory(ctx, args[0], limit)
				if err != nil {
					return err
				}
				printMemory(out, mem)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum messages to show (default from config)")
	cmd.Flags().BoolVarP(&showMemory, "memory", "m", false, "also show remembered preferences")
	return cmd
}

func printHistory(out io.Writer, msgs []conversation.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages.")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(out, "[%s] %-9s %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Role, m.Content)
	}
}

func printMemory(out io.Writer, mem []conversation.MemoryEntry) {
	fmt.Fprintf(out, "\nRemembered (%d):\n", len(mem))
	for _, m := range mem {
		fmt.Fprintf(out, "  - [%s] %s\n", m.Category, m.Content)
	}
}
