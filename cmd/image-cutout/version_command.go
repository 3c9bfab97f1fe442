package main

import (
	"fmt"

	"github.com/spf13/cobra"

	imagecutout "github.com/menta2k/image-cutout"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "image-cutout %s\n", imagecutout.Version)
			return err
		},
	}
}
