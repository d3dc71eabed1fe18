package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewwphillips/restaurantql/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the GraphQL schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := schema.Load(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), schema.SDL)
		return err
	},
}
