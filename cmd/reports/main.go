package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/slotx-reports/pkg/logger"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "reports",
		Usage: "Generate Slot-X consignment report archives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("reports failed")
	}
}
