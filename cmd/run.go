package cmd

import (
	"fmt"

	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/orchestrator"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/Rana718/mfgseed/internal/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:       "run [master|operations|documents]",
	Short:     "Drop, recreate and populate the stores",
	ValidArgs: []string{"master", "operations", "documents"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	Long: `
Populate every store in order: master, then operations, then documents.

Naming a single store only recreates that store. Identifiers it references
in upstream stores are read back from those stores, so they must have been
populated before.

⚠️  WARNING: existing tables and collections with the same names are dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger()

		stores, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		o, err := orchestrator.New(cfg, schema.Default(), stores, log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if len(args) == 1 {
			store, perr := schema.ParseStore(args[0])
			if perr != nil {
				return perr
			}
			err = o.RunStore(ctx, store)
		} else {
			err = o.Run(ctx)
		}
		if err != nil {
			return err
		}

		if check, _ := cmd.Flags().GetBool("verify"); check {
			rep, err := verify.New(schema.Default(), stores, cfg.VerifySample, log).Run(ctx, o.Summary().Results())
			if err != nil {
				return err
			}
			if !rep.OK() {
				return fmt.Errorf("%d verification check(s) failed", len(rep.Failed()))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("summary", "", "Write the run summary as YAML to this file")
	runCmd.Flags().Bool("verify", false, "Check the populated stores afterwards")
	runCmd.Flags().Int("batch-size", 0, "Rows per insert batch")

	viper.BindPFlag("summary_file", runCmd.Flags().Lookup("summary"))
	viper.BindPFlag("batch_size", runCmd.Flags().Lookup("batch-size"))
}
