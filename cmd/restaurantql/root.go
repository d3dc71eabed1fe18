package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andrewwphillips/restaurantql/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "restaurantql",
	Short: "GraphQL API for restaurants enriched with live weather and local time",
	Long: `restaurantql serves a GraphQL API for adding, listing and deleting restaurants.
Restaurants are stored in MongoDB (or an embedded BoltDB file) and enriched on request
with the current temperature and local time of their city.

Settings come from flags, environment variables (prefix ` + config.EnvPrefix + `_, plus
MONGO_URL and API_KEY), a .env file and an optional config file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Configuration file (yaml, json or toml).")
	rootCmd.AddCommand(serveCmd, tokenCmd, schemaCmd)
}

// loadViper returns the settings for cmd, including its flags
func loadViper(cmd *cobra.Command) (*viper.Viper, error) {
	return config.New(cmd.Flags(), configFile)
}
