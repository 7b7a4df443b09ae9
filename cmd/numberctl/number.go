package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newNumberCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "number",
		Aliases: []string{"refresh"},
		Short:   "Find a random live virtual number",
		Long: `Find a random live virtual number.

Online countries are visited in random order and the first number whose
inbox answers is printed together with its latest messages.

Examples:
  numberctl number
  numberctl refresh --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildClients(cmd, v)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if d := c.cfg.DiscoveryTimeout(); d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Getting a random number for you...")
			fmt.Fprintln(out)

			result, err := c.engine.FindLiveNumberWithProgress(ctx, newTextProgress(out))
			if err != nil {
				return fmt.Errorf("%s: %w", msgTryAgain, err)
			}
			renderDiscovery(out, result)
			return nil
		},
	}
}
