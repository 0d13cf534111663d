package main

import (
	"fmt"
	"strings"

	"github.com/rlegendi/jyzer/format"
	"github.com/spf13/cobra"
)

func newDumpCmd(a *app) *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file.class>",
		Short: "Dump the decoded class structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.loadClass(args[0])
			if err != nil {
				return err
			}

			name := dumpFormat
			if !cmd.Flags().Changed("format") {
				name = a.cfg.Output.Format
			}
			enc, err := format.NewEncoder(name, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := enc.Encode(cf); err != nil {
				return fmt.Errorf("encode %s: %w", name, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line",
		fmt.Sprintf("output format (%s)", strings.Join(format.Names, ", ")))

	return cmd
}
