package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/config"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/storage"
)

var (
	templateName string
	templateOut  string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage saved templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			printRecords(cmd, lib.Templates(cmd.Context()))
			return nil
		})
	},
}

var templatesSaveCmd = &cobra.Command{
	Use:   "save <document>",
	Short: "Save a creative as a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := readDocument(args[0])
		if err != nil {
			return err
		}
		return withLibrary(cmd, func(lib *storage.Library) error {
			rec, err := lib.SaveTemplate(cmd.Context(), templateName, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved template %q (%s)\n", rec.Name, rec.ID)
			return nil
		})
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved template's creative",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			rec, err := lib.Template(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if templateOut == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(rec.SerializedDoc))
				return err
			}
			if err := os.WriteFile(templateOut, rec.SerializedDoc, 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		})
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			return lib.DeleteTemplate(cmd.Context(), args[0])
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent exports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			printRecords(cmd, lib.History(cmd.Context()))
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the export history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			return lib.ClearHistory(cmd.Context())
		})
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage stored service API keys",
}

var keysSetCmd = &cobra.Command{
	Use:   "set <service> <key>",
	Short: "Store an API key for a service",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			return lib.SetAPIKey(cmd.Context(), args[0], args[1])
		})
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show <service>",
	Short: "Show a stored API key, masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			key, err := lib.APIKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), observability.MaskKey(key))
			return nil
		})
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <service>",
	Short: "Delete a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(lib *storage.Library) error {
			return lib.DeleteAPIKey(cmd.Context(), args[0])
		})
	},
}

func init() {
	templatesSaveCmd.Flags().StringVarP(&templateName, "name", "n", "", "Template name (defaults to the format and date)")
	templatesShowCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Write the creative to this path")
	templatesCmd.AddCommand(templatesListCmd, templatesSaveCmd, templatesShowCmd, templatesDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	keysCmd.AddCommand(keysSetCmd, keysShowCmd, keysDeleteCmd)
	rootCmd.AddCommand(templatesCmd, historyCmd, keysCmd)
}

// withLibrary opens the configured store for the duration of fn
func withLibrary(cmd *cobra.Command, fn func(lib *storage.Library) error) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	lib, store, err := openLibrary(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("failed to close store", "error", cerr)
		}
	}()

	if err := fn(lib); err != nil {
		return err
	}
	if lib.Degraded() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: the %s store is unavailable, showing an empty library\n", backendName(cfg))
	}
	return nil
}

func backendName(cfg config.Config) string {
	if cfg.StoreBackend == "" {
		return storage.BackendBadger
	}
	return cfg.StoreBackend
}

func printRecords(cmd *cobra.Command, records []storage.Record) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No entries")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Format, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}
