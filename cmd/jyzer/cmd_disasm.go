package main

import (
	"fmt"

	"github.com/rlegendi/jyzer/format"
	"github.com/spf13/cobra"
)

func newDisasmCmd(a *app) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "disasm <file.class>",
		Short: "Disassemble method bodies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.loadClass(args[0])
			if err != nil {
				return err
			}
			if method != "" && len(cf.GetMethods(method)) == 0 {
				return fmt.Errorf("no method named %s in %s", method, cf.ThisClassName())
			}
			enc := format.NewDisasmEncoder(cmd.OutOrStdout())
			enc.Method = method
			return enc.Encode(cf)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "only disassemble methods with this name")

	return cmd
}
