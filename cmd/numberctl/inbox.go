package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInboxCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox <country> <number>",
		Short: "Show the latest messages of a number",
		Long: `Show the latest 5 messages of a number.

Examples:
  numberctl inbox united_kingdom 447911123456`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildClients(cmd, v)
			if err != nil {
				return err
			}

			messages, err := c.inbox.Fetch(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", msgTryAgain, err)
			}
			renderInbox(cmd.OutOrStdout(), messages)
			return nil
		},
	}
}
