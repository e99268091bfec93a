package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bloomcart/bloomcart/internal/assistant"
)

func newChatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant as a customer",
		Long: `Send messages to the assistant exactly as the storefront widget would.

With a message argument a single turn runs and the reply is printed.
Without one, an interactive session starts when stdin is a terminal;
otherwise each line of stdin is sent as its own turn.

Inquiries and summaries the assistant triggers are real: they are stored
and dispatched to the configured channels.

Examples:
  bloomcart chat --user u42 "Do you do wedding arrangements?"
  bloomcart chat --user u42
  cat transcript.txt | bloomcart chat --user u42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				return chatTurn(ctx, rt.assistant, out, userID, strings.Join(args, " "))
			}

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			if interactive {
				fmt.Fprintf(out, "Chatting as %s. Type /quit to leave.\n\n", userID)
			}
			return chatLoop(ctx, rt.assistant, cmd.InOrStdin(), out, userID, interactive)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "customer session id")
	return cmd
}

type chatter interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
}

// chatLoop sends every non-empty line of in as a turn until EOF or /quit.
func chatLoop(ctx context.Context, a chatter, in io.Reader, out io.Writer, userID string, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "you> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if err := chatTurn(ctx, a, out, userID, line); err != nil {
			return err
		}
		if prompt {
			fmt.Fprintln(out)
		}
	}
	return scanner.Err()
}

func chatTurn(ctx context.Context, a chatter, out io.Writer, userID, message string) error {
	resp, err := a.Chat(ctx, assistant.ChatRequest{UserID: userID, Message: message})
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	fmt.Fprintf(out, "assistant> %s\n", resp.Message)
	if resp.InquiryCreated {
		fmt.Fprintf(out, "  (inquiry %s recorded)\n", resp.ReferenceID)
	}
	if resp.WhatsAppSent != nil {
		fmt.Fprintf(out, "  (whatsapp sent: %t)\n", *resp.WhatsAppSent)
	}
	if resp.EmailSent != nil {
		fmt.Fprintf(out, "  (email sent: %t)\n", *resp.EmailSent)
	}
	return nil
}
