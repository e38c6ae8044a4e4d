package cmd

import (
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/export"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:       "export [master|operations|documents]",
	Short:     "Export the generated dataset to JSON or CSV files",
	ValidArgs: []string{"master", "operations", "documents"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger()

		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}

		stores, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		ctx := cmd.Context()
		selected := make(map[schema.Store]database.Store)
		for s, st := range map[schema.Store]database.Store{
			schema.Master:     stores.Master,
			schema.Operations: stores.Operations,
			schema.Documents:  stores.Documents,
		} {
			if len(args) == 1 && string(s) != args[0] {
				continue
			}
			if err := st.Connect(ctx); err != nil {
				return err
			}
			selected[s] = st
		}

		log.Info("📦 Exporting to %s (%s)...", dir, format)
		m, err := export.New(schema.Default(), dir, format, log).All(ctx, selected)
		if err != nil {
			return err
		}
		log.Success("✅ Exported %d files", len(m.Files))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("dir", "export", "Directory to write the files to")
	exportCmd.Flags().String("format", "json", "Output format: json or csv")
}
