package main

import (
	"github.com/rlegendi/jyzer/format"
	"github.com/spf13/cobra"
)

func newPoolCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pool <file.class>",
		Short: "List the constant pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.loadClass(args[0])
			if err != nil {
				return err
			}
			return format.NewPoolEncoder(cmd.OutOrStdout()).Encode(cf)
		},
	}
}
