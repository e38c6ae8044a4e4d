package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	quiet     bool
	configErr error
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════════════════╗",
		"║   ███╗   ███╗███████╗ ██████╗ ███████╗███████╗███████╗██████╗  ║",
		"║   ████╗ ████║██╔════╝██╔════╝ ██╔════╝██╔════╝██╔════╝██╔══██╗ ║",
		"║   ██╔████╔██║█████╗  ██║  ███╗███████╗█████╗  █████╗  ██║  ██║ ║",
		"║   ██║╚██╔╝██║██╔══╝  ██║   ██║╚════██║██╔══╝  ██╔══╝  ██║  ██║ ║",
		"║   ██║ ╚═╝ ██║██║     ╚██████╔╝███████║███████╗███████╗██████╔╝ ║",
		"║   ╚═╝     ╚═╝╚═╝      ╚═════╝ ╚══════╝╚══════╝╚══════╝╚═════╝  ║",
		"║                                                              ║",
		"║      🏭 Synthetic manufacturing & supply-chain data 🏭       ║",
		"╚══════════════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                        ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "mfgseed",
	Short: "Populate master, operations and IoT stores with consistent synthetic data",
	Long: `
mfgseed generates a realistic, referentially consistent manufacturing dataset
and loads it into three stores:

- master      (MySQL, PostgreSQL or SQLite): facilities, people, partners, materials
- operations  (PostgreSQL, MySQL or SQLite): equipment, orders, inspections, shipments
- documents   (MongoDB): locations, sensors, readings, alerts, tracking events

Every store is dropped and recreated on each run. Setting a seed makes runs
reproducible.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("mfgseed version %s\n", Version)
			return
		}

		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mfgseed.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Skip confirmations")
	rootCmd.PersistentFlags().Int64("seed", 0, "Seed for reproducible runs")
	rootCmd.PersistentFlags().Int("cap", 0, "Clamp every target to at most this many rows")

	viper.BindPFlag("cap", rootCmd.PersistentFlags().Lookup("cap"))

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("mfgseed")
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing || cfgFile != "" {
			configErr = fmt.Errorf("failed to read config file: %w", err)
		}
	}
}

func newLogger() *logger.Logger {
	log := logger.Stdout()
	log.SetQuiet(quiet)
	return log
}

// loadConfig reads the merged configuration. The seed only counts as explicit when
// the flag, the config file or MFGSEED_SEED sets it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		cfg.SetSeed(seed)
	}
	return cfg, nil
}

func askConfirmation(cmd *cobra.Command, message string) (bool, error) {
	if force, _ := cmd.Flags().GetBool("force"); force {
		return true, nil
	}
	fd := os.Stdin.Fd()
	return confirmIfInteractive(os.Stdin, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), message)
}
