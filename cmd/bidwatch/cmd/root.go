// Package cmd implements the CLI commands for bidwatch.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "bidwatch",
	Short: "Track eBay auctions from Discord",
	Long: "bidwatch polls tracked eBay auction and Buy-It-Now listings, keeps a\n" +
		"persistent embed per listing up to date in its Discord channel, and\n" +
		"moves listings through their lifecycle (active, ended, sold, shipped,\n" +
		"closed) with the channel renames and category moves to match.",
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")

	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))

	viper.SetEnvPrefix("BIDWATCH")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(versionCmd())
}

// configPath resolves the config file path from the flag or the
// BIDWATCH_CONFIG environment variable.
func configPath() string {
	return viper.GetString("config")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
