package cmd

import (
	"fmt"

	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/Rana718/mfgseed/internal/verify"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check referential integrity, keys, intervals and coordinates of populated stores",
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

		ctx := cmd.Context()
		for _, st := range []database.Store{stores.Master, stores.Operations, stores.Documents} {
			if err := st.Connect(ctx); err != nil {
				return err
			}
		}

		rep, err := verify.New(schema.Default(), stores, cfg.VerifySample, log).Run(ctx, nil)
		if err != nil {
			return err
		}
		if !rep.OK() {
			return fmt.Errorf("%d verification check(s) failed", len(rep.Failed()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
