package cmd

import (
	"fmt"
	"strings"

	"github.com/Rana718/mfgseed/internal/bootstrap"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/planner"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:       "plan [master|operations|documents]",
	Short:     "Show the population order and the DDL of each store",
	ValidArgs: []string{"master", "operations", "documents"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := schema.Default()
		plans, err := planner.BuildAll(c)
		if err != nil {
			return err
		}

		dialect, _ := cmd.Flags().GetString("sql")
		for _, p := range plans {
			if len(args) == 1 && string(p.Store) != args[0] {
				continue
			}
			if dialect != "" {
				if p.Store == schema.Documents {
					continue
				}
				d, err := database.NewDialect(dialect)
				if err != nil {
					return err
				}
				fmt.Printf("-- %s store (%s)\n%s;\n\n", p.Store, d.Name(), bootstrap.Script(d, c, p))
				continue
			}
			printPlan(c, p)
		}
		return nil
	},
}

func printPlan(c *schema.Catalog, p *planner.Plan) {
	color.New(color.FgCyan, color.Bold).Printf("\n📋 %s store\n", p.Store)
	for i, e := range p.Order {
		target := config.DefaultTargets[e.Name]
		fmt.Printf("  %2d. %-22s %9d  %s\n", i+1, e.Name, target, e.ID)
	}
	section := func(title string, edges []schema.Edge) {
		if len(edges) == 0 {
			return
		}
		lines := make([]string, len(edges))
		for i, edge := range edges {
			lines[i] = "     " + edge.String()
		}
		color.Yellow("  %s:", title)
		fmt.Println(strings.Join(lines, "\n"))
	}
	section("deferred", p.Deferred)
	section("self references", p.SelfRefs)
	section("upstream", p.Upstream)
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().String("sql", "", "Print the DDL script for this dialect (mysql, postgres, sqlite)")
}
