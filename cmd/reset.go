package cmd

import (
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/planner"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:       "reset [master|operations|documents]",
	Short:     "Empty the stores without dropping them",
	ValidArgs: []string{"master", "operations", "documents"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	Long: `
Delete every generated row while keeping tables, collections and indexes.
Stores are emptied in reverse order (documents first) and tables within a
store in reverse population order, so no foreign key is left dangling.

⚠️  WARNING: This will permanently delete all generated data!

Use --force to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger()

		log.Info("🗑️  This will delete all generated rows!")
		ok, err := askConfirmation(cmd, "Are you sure you want to reset the stores?")
		if err != nil {
			return err
		}
		if !ok {
			log.Info("Reset cancelled")
			return nil
		}

		stores, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		c := schema.Default()
		ctx := cmd.Context()
		for i := len(schema.StoreOrder) - 1; i >= 0; i-- {
			s := schema.StoreOrder[i]
			if len(args) == 1 && string(s) != args[0] {
				continue
			}
			p, err := planner.Build(c, s)
			if err != nil {
				return err
			}
			var st database.Store
			switch s {
			case schema.Master:
				st = stores.Master
			case schema.Operations:
				st = stores.Operations
			default:
				st = stores.Documents
			}
			if err := st.Connect(ctx); err != nil {
				return err
			}
			names := make([]string, 0, len(p.Order))
			for _, e := range p.DropOrder() {
				names = append(names, e.Name)
			}
			if err := st.TruncateInOrder(ctx, names); err != nil {
				return err
			}
			log.Success("✅ %s store emptied (%d tables)", st.Name(), len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
