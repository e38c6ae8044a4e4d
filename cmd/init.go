package cmd

import (
	"fmt"
	"os"

	"github.com/Rana718/mfgseed/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter mfgseed.yaml and .env.example",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		master, _ := cmd.Flags().GetString("master")
		operations, _ := cmd.Flags().GetString("operations")
		if local, _ := cmd.Flags().GetBool("sqlite"); local {
			master, operations = "sqlite", "sqlite"
		}

		tmpl := template.NewProjectTemplate(template.ValidateDatabaseType(master), template.ValidateDatabaseType(operations))

		for _, dir := range tmpl.GetDirectoryStructure() {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		files := []struct {
			path    string
			content string
		}{
			{"mfgseed.yaml", tmpl.GetConfig()},
			{".env.example", tmpl.GetEnvTemplate()},
		}
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil {
				ok, err := askConfirmation(cmd, fmt.Sprintf("%s already exists. Overwrite?", f.path))
				if err != nil {
					return err
				}
				if !ok {
					color.Yellow("⚠️  Skipped %s", f.path)
					continue
				}
			}
			if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", f.path, err)
			}
			color.Green("✅ Created %s", f.path)
		}

		fmt.Println()
		color.Cyan("Next steps:")
		fmt.Println("  1. Review the stores in mfgseed.yaml")
		fmt.Println("  2. Copy .env.example to .env and set the passwords")
		fmt.Println("  3. mfgseed plan, then mfgseed run --verify")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("master", "mysql", "Master store provider (mysql, postgres, sqlite)")
	initCmd.Flags().String("operations", "postgres", "Operations store provider (postgres, mysql, sqlite)")
	initCmd.Flags().Bool("sqlite", false, "Use SQLite files for both relational stores")
}
