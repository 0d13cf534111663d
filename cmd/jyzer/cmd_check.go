package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.class>",
		Short: "Report constant pool references that do not resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.loadClass(args[0])
			if err != nil {
				return err
			}
			problems := cf.CheckReferences()
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d unresolved references", len(problems))
			}
			return nil
		},
	}
}
