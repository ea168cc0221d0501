package main

import (
	"fmt"
	"os"

	"github.com/lightningnetwork/blockmode"
	"github.com/lightningnetwork/blockmode/build"
	"github.com/urfave/cli"
)

// Subsystem is the logging code of the command line tool.
const Subsystem = "BCLI"

var log = blockmode.AddSubLogger(Subsystem)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[blockcli] %v\n", err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "blockcli"
	app.Version = build.VersionInfo()
	app.Usage = "encrypt, decrypt and analyze data under ECB and CBC " +
		"block cipher modes"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:      "configfile",
			Value:     blockmode.DefaultConfigFile,
			Usage:     "The path to the config file.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name: "debuglevel",
			Usage: "Logging level for all subsystems, or " +
				"<subsystem>=<level>,... pairs.",
		},
		cli.StringFlag{
			Name:  "cipher",
			Usage: "The block primitive to use, e.g. aes128.",
		},
		cli.StringFlag{
			Name:      "logdir",
			Usage:     "The directory to write the log file to.",
			TakesFile: true,
		},
		cli.BoolFlag{
			Name:  "nologfile",
			Usage: "Do not write a log file.",
		},
	}
	app.Commands = []cli.Command{
		padCommand,
		ecbCommand,
		cbcCommand,
		detectCommand,
		simulateCommand,
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

// loadConfig reads the config file named by the global flags, applies the
// remaining global flags on top and starts logging. The returned cleanup
// function must be called once the command is done.
func loadConfig(ctx *cli.Context) (*blockmode.Config, func(), error) {
	cfg, err := blockmode.LoadConfig(ctx.GlobalString("configfile"))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load config: %w", err)
	}

	if ctx.GlobalIsSet("debuglevel") {
		cfg.DebugLevel = ctx.GlobalString("debuglevel")
	}
	if ctx.GlobalIsSet("cipher") {
		cfg.Cipher = ctx.GlobalString("cipher")
	}
	if ctx.GlobalIsSet("logdir") {
		cfg.LogDir = ctx.GlobalString("logdir")
	}
	if ctx.GlobalBool("nologfile") {
		cfg.Log.File.Disable = true
	}

	if err := blockmode.ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}

	cleanup, err := blockmode.InitLogging(cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Debugf("Loaded config: %v", blockmode.SpewLogClosure(cfg))

	return cfg, cleanup, nil
}
