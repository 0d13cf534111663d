package main

import (
	"fmt"
	"os"

	"github.com/rlegendi/jyzer/classfile"
	"github.com/rlegendi/jyzer/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func log() commonlog.Logger {
	return commonlog.GetLogger("jyzer.cli")
}

// app carries the settings shared by every command.
type app struct {
	configPath string
	verbosity  int
	logFile    string

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "jyzer",
		Short:        "Inspect compiled JVM class files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to jyzer.toml (default: search upwards from the working directory)")
	flags.CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity")
	flags.StringVar(&a.logFile, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newDumpCmd(a))
	rootCmd.AddCommand(newPoolCmd(a))
	rootCmd.AddCommand(newDisasmCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}

	verbosity := a.cfg.Log.Verbosity
	if cmd.Flags().Changed("verbose") {
		verbosity = a.verbosity
	}
	logFile := a.cfg.Log.File
	if a.logFile != "" {
		logFile = a.logFile
	}
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}

	if a.cfg.Path != "" {
		log().Debugf("using config %s", a.cfg.Path)
	}
	return nil
}

// checkVersion applies the configured version policy to a decoded class.
func (a *app) checkVersion(source string, cf *classfile.ClassFile) error {
	tooNew, err := a.cfg.CheckVersion(cf)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	if tooNew {
		v := cf.Version()
		log().Warningf("%s: class-file version %d.%d is newer than %d.%d; continuing",
			source, v.Major, v.Minor, a.cfg.Decode.MaxMajor, a.cfg.Decode.MaxMinor)
	}
	return nil
}

// loadClass parses a class file and applies the version policy.
func (a *app) loadClass(path string) (*classfile.ClassFile, error) {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse class file: %w", err)
	}
	if err := a.checkVersion(path, cf); err != nil {
		return nil, err
	}
	return cf, nil
}
