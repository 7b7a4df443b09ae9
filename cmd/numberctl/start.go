package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const welcomeText = `Welcome to the virtual number finder.

Run "numberctl help" for usage.
Run "numberctl number" to get a live virtual number.
`

const helpText = `numberctl finds an online, active free number on onlinesim.io.

Run "numberctl number" and a random live number is picked for you.
Run it again (or "numberctl refresh") for another one.

"numberctl inbox <country> <number>" shows the latest 5 messages
of a number in the order the provider lists them.

The number's Telegram profile link is printed with every number.`

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"restart"},
		Short:   "Show the welcome message",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), welcomeText)
			return err
		},
	}
}
