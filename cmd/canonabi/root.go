package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/config"
	"github.com/wippyai/canonabi/linker"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	log     *zap.Logger
	cfgFile string
	cfg     config.Config
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "canonabi",
		Short: "Inspect Canonical ABI layouts, flattening and calls",
		Long: titleStyle.Render("canonabi") + ` inspects the Component Model Canonical ABI.

It prints memory layouts and flattened core signatures of WIT types, and
drives calls through the built-in lists and resource-floats worlds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "TOML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log call transitions at debug level")

	root.AddCommand(
		newLayoutCmd(a),
		newFlattenCmd(a),
		newDemoCmd(a),
		newBrowseCmd(a),
		newImportsCmd(a),
	)
	return root
}

// init loads the config file, if any, and installs the package loggers.
func (a *app) init() error {
	if a.cfgFile != "" {
		cfg, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.verbose {
		a.cfg.LogLevel = "debug"
	}

	log, err := a.cfg.NewLogger()
	if err != nil {
		return err
	}
	a.log = log
	call.SetLogger(log.Named("call"))
	linker.SetLogger(log.Named("linker"))
	return nil
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
