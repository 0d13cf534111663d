package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rlegendi/jyzer/classfile"
	"github.com/rlegendi/jyzer/format"
	"github.com/rlegendi/jyzer/store"
	"github.com/spf13/cobra"
)

// indexOpener opens the database named by the query --index flag.
type indexOpener func() (*store.Index, error)

func newQueryCmd(a *app) *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Look up classes recorded by scan --index",
	}

	cmd.PersistentFlags().StringVar(&indexPath, "index", "", "SQLite database written by scan --index")
	cmd.MarkPersistentFlagRequired("index")

	open := func() (*store.Index, error) {
		if _, err := os.Stat(indexPath); err != nil {
			return nil, fmt.Errorf("index %s: %w", indexPath, err)
		}
		ix, err := store.Open(indexPath)
		if err != nil {
			return nil, fmt.Errorf("open index %s: %w", indexPath, err)
		}
		log().Debugf("querying %s", indexPath)
		return ix, nil
	}

	cmd.AddCommand(newQueryClassCmd(open))
	cmd.AddCommand(newQueryMethodsCmd(open))
	cmd.AddCommand(newQuerySubclassesCmd(open))
	cmd.AddCommand(newQueryCountCmd(open))

	return cmd
}

func newQueryClassCmd(open indexOpener) *cobra.Command {
	var outFormat string

	cmd := &cobra.Command{
		Use:   "class <name>",
		Short: "Print the stored summary of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := open()
			if err != nil {
				return err
			}
			defer ix.Close()

			c, err := ix.Get(cmd.Context(), classfile.SourceToInternalName(args[0]))
			if errors.Is(err, store.ErrClassNotFound) {
				return fmt.Errorf("%s is not indexed", args[0])
			}
			if err != nil {
				return err
			}

			switch outFormat {
			case "line":
				return format.WriteLines(cmd.OutOrStdout(), c)
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			default:
				return fmt.Errorf("unknown format: %s", outFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&outFormat, "format", "f", "line", "output format (line, json)")

	return cmd
}

func newQueryMethodsCmd(open indexOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "methods <name>",
		Short: "List indexed methods with the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := open()
			if err != nil {
				return err
			}
			defer ix.Close()

			refs, err := ix.FindMethods(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				return fmt.Errorf("no indexed method named %s", args[0])
			}
			for _, r := range refs {
				access := r.Access.Display(classfile.MethodFlags)
				if access == "" {
					access = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d\n", r.Class, r.Name, r.Descriptor, access, r.CodeLength)
			}
			return nil
		},
	}
}

func newQuerySubclassesCmd(open indexOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "subclasses <name>",
		Short: "List indexed classes that directly extend a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := open()
			if err != nil {
				return err
			}
			defer ix.Close()

			names, err := ix.Subclasses(cmd.Context(), classfile.SourceToInternalName(args[0]))
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newQueryCountCmd(open indexOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of indexed classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := open()
			if err != nil {
				return err
			}
			defer ix.Close()

			n, err := ix.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d classes\n", n)
			return nil
		},
	}
}
