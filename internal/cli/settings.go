package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bloomcart/bloomcart/internal/catalog"
)

// Assistant setting keys accepted by `settings set`. Any other key is
// stored as a site setting.
const (
	keyEnabled = "bot.enabled"
	keyPrompt  = "bot.prompt"
	keyTone    = "bot.tone"
	keyMemory  = "bot.memory"
)

var siteKeys = []string{catalog.SettingBusinessName, catalog.SettingBusinessEmail, catalog.SettingCurrencySymbol}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change assistant and site settings",
	}
	cmd.AddCommand(newSettingsShowCmd(), newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := context.Background()
			st, err := rt.catalog.AISettings(ctx)
			if err != nil {
				return err
			}
			site := make(map[string]string, len(siteKeys))
			for _, k := range siteKeys {
				v, err := rt.catalog.SiteSetting(ctx, k)
				if err != nil {
					return err
				}
				site[k] = v
			}
			printSettings(cmd.OutOrStdout(), st, site)
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting.

Assistant keys:
  bot.enabled   true or false
  bot.prompt    persona prompt; empty restores the default
  bot.tone      friendly, professional, luxurious or playful
  bot.memory    remembered preferences per turn, 1-50

Any other key is stored as a site setting, e.g. businessName,
businessEmail, currencySymbol.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := context.Background()
			key, value := args[0], args[1]
			if !strings.HasPrefix(key, "bot.") {
				if err := rt.catalog.SetSiteSetting(ctx, key, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s.\n", key)
				return nil
			}

			st, err := rt.catalog.AISettings(ctx)
			if err != nil {
				return err
			}
			if err := applySetting(&st, key, value); err != nil {
				return err
			}
			if err := rt.catalog.SaveAISettings(ctx, st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s.\n", key)
			return nil
		},
	}
}

// applySetting writes one bot.* key into st.
func applySetting(st *catalog.AISettings, key, value string) error {
	switch key {
	case keyEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		st.Enabled = b
	case keyPrompt:
		st.SystemPrompt = value
	case keyTone:
		t := catalog.Tone(strings.ToLower(value))
		if !catalog.ValidTone(t) {
			return fmt.Errorf("%s: unknown tone %q (valid: friendly, professional, luxurious, playful)", key, value)
		}
		st.Tone = t
	case keyMemory:
		n, err := strconv.Atoi(value)
		if err != nil || n < catalog.MinMemoryChunks || n > catalog.MaxMemoryChunks {
			return fmt.Errorf("%s: expected an integer between %d and %d, got %q",
				key, catalog.MinMemoryChunks, catalog.MaxMemoryChunks, value)
		}
		st.MaxMemoryChunks = n
	default:
		return fmt.Errorf("unknown setting %q (valid: %s, %s, %s, %s)", key, keyEnabled, keyPrompt, keyTone, keyMemory)
	}
	if st.MaxMemoryChunks == 0 {
		st.MaxMemoryChunks = catalog.DefaultMemoryChunks
	}
	return nil
}

func printSettings(out io.Writer, st catalog.AISettings, site map[string]string) {
	prompt := st.SystemPrompt
	if prompt == "" {
		prompt = "(default)"
	}
	fmt.Fprintln(out, "Assistant")
	fmt.Fprintf(out, "  %-16s %t\n", keyEnabled, st.Enabled)
	fmt.Fprintf(out, "  %-16s %s\n", keyTone, st.Tone)
	fmt.Fprintf(out, "  %-16s %d\n", keyMemory, st.MemoryLimit())
	fmt.Fprintf(out, "  %-16s %s\n", keyPrompt, prompt)
	fmt.Fprintln(out, "\nSite")
	for _, k := range siteKeys {
		fmt.Fprintf(out, "  %-16s %s\n", k, dash(site[k]))
	}
}
