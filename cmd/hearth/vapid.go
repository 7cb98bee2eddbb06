package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/push"
)

func newVAPIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for web push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "HEARTH_VAPID_PUBLIC_KEY=%s\nHEARTH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	}
}
