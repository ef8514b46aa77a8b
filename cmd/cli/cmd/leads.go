// Package cmd - leads command
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"widget-estimate/adapters/storage"
	"widget-estimate/core/output"
	"widget-estimate/core/ui"
	"widget-estimate/internal/app"
	"widget-estimate/internal/config"
)

var (
	leadsWidgetKey string
	leadsStatus    string
	leadsLimit     int
	leadsJSON      bool
)

// leadsCmd inspects captured leads
var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect captured leads",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured leads, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		leads, err := store.List(cmd.Context(), &storage.ListFilter{
			WidgetKey: leadsWidgetKey,
			Status:    leadsStatus,
			Limit:     leadsLimit,
		})
		if err != nil {
			return err
		}
		if leadsJSON {
			return writeIndented(cmd, leads)
		}

		w := ui.NewWriter(cmd.OutOrStdout(), config.Get().Output.NoColor)
		if len(leads) == 0 {
			w.Info("No leads captured")
			return nil
		}
		table := w.NewTable("Created", "Widget", "Contact", "Total", "ID").AlignRight(3)
		for _, lead := range leads {
			table.AddRow(
				lead.CreatedAt.Format("2006-01-02 15:04"),
				lead.WidgetKey,
				lead.Contact.DisplayName(),
				output.Money(lead.TotalPrice()),
				lead.ID,
			)
		}
		table.Render()
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one lead as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		lead, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeIndented(cmd, lead)
	},
}

func init() {
	leadsListCmd.Flags().StringVar(&leadsWidgetKey, "widget-key", "", "only leads captured by this widget")
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", "", "only leads with this status")
	leadsListCmd.Flags().IntVarP(&leadsLimit, "limit", "n", 50, "maximum number of leads")
	leadsListCmd.Flags().BoolVar(&leadsJSON, "json", false, "print JSON instead of a table")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
}

func openStore() (storage.Store, error) {
	cfg := config.Get()
	if cfg.Storage.Backend == config.BackendMemory {
		return nil, fmt.Errorf("the memory backend does not persist leads between runs")
	}
	return app.OpenStore(cfg.Storage)
}

func writeIndented(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
