package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bloomcart/bloomcart/internal/export"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/notify"
)

func newInquiryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inquiry",
		Aliases: []string{"inquiries"},
		Short:   "List, inspect and manage sales inquiries",
	}
	cmd.AddCommand(
		newInquiryListCmd(),
		newInquiryShowCmd(),
		newInquiryStatusCmd(),
		newInquirySendCmd(),
		newInquiryExportCmd(),
	)
	return cmd
}

func newInquiryListCmd() *cobra.Command {
	var (
		userID string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inquiries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := context.Background()
			page := inquiry.Page{Limit: limit, Offset: offset}
			var list []inquiry.Inquiry
			if userID != "" {
				list, err = rt.inquiries.ListByUser(ctx, userID, page)
			} else {
				list, err = rt.inquiries.ListAll(ctx, page)
			}
			if err != nil {
				return err
			}
			printInquiryTable(cmd.OutOrStdout(), list, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "only this customer's inquiries")
	cmd.Flags().IntVarP(&limit, "limit", "n", inquiry.DefaultPageLimit, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func newInquiryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <reference-id>",
		Short: "Show one inquiry by reference id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			inq, err := rt.inquiries.GetByReferenceID(context.Background(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if inq == nil {
				return fmt.Errorf("no inquiry with reference %s", args[0])
			}
			printInquiry(cmd.OutOrStdout(), *inq)
			return nil
		},
	}
}

func newInquiryStatusCmd() *cobra.Command {
	var whatsappSent, emailSent bool
	cmd := &cobra.Command{
		Use:   "status <inquiry-id> <NEW|SENT|FAILED|CLOSED>",
		Short: "Force an inquiry's status and delivery flags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			p := inquiry.Patch{Status: inquiry.Status(strings.ToUpper(args[1]))}
			if cmd.Flags().Changed("whatsapp-sent") {
				p.WhatsAppSent = inquiry.Bool(whatsappSent)
			}
			if cmd.Flags().Changed("email-sent") {
				p.EmailSent = inquiry.Bool(emailSent)
			}
			if err := rt.inquiries.UpdateStatus(context.Background(), args[0], p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inquiry %s is now %s.\n", args[0], p.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&whatsappSent, "whatsapp-sent", false, "set the WhatsApp delivery flag")
	cmd.Flags().BoolVar(&emailSent, "email-sent", false, "set the email delivery flag")
	return cmd
}

func newInquirySendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <inquiry-id> <whatsapp|email>",
		Short: "Send an inquiry to the business over a channel",
		Long: `Dispatch a stored inquiry to the business. A successful send marks the
inquiry SENT; a failed WhatsApp send marks it FAILED.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := notify.ParseChannel(args[1])
			if err != nil {
				return err
			}
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.notify.SendInquiry(context.Background(), args[0], ch)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("send over %s failed: %s", ch, res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent inquiry %s over %s.\n", args[0], ch)
			return nil
		},
	}
}

func newInquiryExportCmd() *cobra.Command {
	var (
		format string
		output string
		userID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export inquiries as " + strings.Join(export.ValidFormats(), ", "),
		Long: `Export inquiries for hand-off to other tools.

Examples:
  bloomcart inquiry export --format csv --output leads.csv
  bloomcart inquiry export --format markdown --user u42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, ok := export.Get(format)
			if !ok {
				return fmt.Errorf("unknown format %q; valid formats: %s", format, strings.Join(export.ValidFormats(), ", "))
			}

			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := context.Background()
			page := inquiry.Page{Limit: limit}
			var list []inquiry.Inquiry
			if userID != "" {
				list, err = rt.inquiries.ListByUser(ctx, userID, page)
			} else {
				list, err = rt.inquiries.ListAll(ctx, page)
			}
			if err != nil {
				return err
			}

			out, err := exp.Export(export.ExportData{GeneratedAt: time.Now(), Inquiries: list})
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d inquiries to %s\n", len(list), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "only this customer's inquiries")
	cmd.Flags().IntVarP(&limit, "limit", "n", 1000, "maximum inquiries to export")
	return cmd
}

func printInquiryTable(out io.Writer, list []inquiry.Inquiry, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No inquiries.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REFERENCE\tSTATUS\tCUSTOMER\tOCCASION\tCREATED\tID")
	for _, inq := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inq.ReferenceID, inq.Status, inq.Contact.Name, dash(inq.Details.Occasion),
			humanize.RelTime(inq.CreatedAt, now, "ago", "from now"), inq.ID)
	}
	tw.Flush()
}

func printInquiry(out io.Writer, inq inquiry.Inquiry) {
	d := inq.Details
	fmt.Fprintf(out, "Reference: %s\n", inq.ReferenceID)
	fmt.Fprintf(out, "ID:        %s\n", inq.ID)
	fmt.Fprintf(out, "Status:    %s (whatsapp sent: %t, email sent: %t)\n", inq.Status, inq.WhatsAppSent, inq.EmailSent)
	fmt.Fprintf(out, "Customer:  %s, %s, %s\n", inq.Contact.Name, inq.Contact.Phone, inq.Contact.Email)
	fmt.Fprintf(out, "Occasion:  %s\n", dash(d.Occasion))
	fmt.Fprintf(out, "Colours:   %s\n", dash(d.PreferredColors))
	fmt.Fprintf(out, "Budget:    %s\n", dash(notify.FormatBudget(d.BudgetMin, d.BudgetMax)))
	fmt.Fprintf(out, "Delivery:  %s\n", dash(d.DeliveryArea))
	fmt.Fprintf(out, "Event:     %s\n", dash(d.EventDateTime))
	fmt.Fprintf(out, "Note:      %s\n", dash(d.MessageNote))
	fmt.Fprintf(out, "Items:     %s\n", dash(strings.Join(d.SelectedCatalogItemIDs, ", ")))
	fmt.Fprintf(out, "Created:   %s\n", inq.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Updated:   %s\n", inq.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
