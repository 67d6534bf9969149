package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gong-cli/gong/client"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	app := &cli.App{
		Name:      "gong",
		Usage:     "run a command on a chunk-protocol server and relay its output",
		ArgsUsage: "COMMAND [ARG...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "The server host to connect to.",
				Value: client.DefaultHost,
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "The server port to connect to.",
				Value: client.DefaultPort,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a TOML config file.",
			},
			&cli.StringFlag{
				Name:  "heartbeat-interval",
				Usage: "Interval between heartbeat chunks.",
				Value: client.DefaultHeartbeatInterval.String(),
			},
			&cli.StringFlag{
				Name:  "dial-timeout",
				Usage: "Timeout for establishing the TCP connection.",
				Value: client.DefaultDialTimeout.String(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging.",
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() == 0 {
				return fmt.Errorf("no command given")
			}

			cfg := defaultConfig()
			if path := ctx.String("config"); path != "" {
				var err error
				cfg, err = loadConfig(path)
				if err != nil {
					return err
				}
			}
			// Explicit flags win over the config file.
			if ctx.IsSet("host") {
				cfg.Host = ctx.String("host")
			}
			if ctx.IsSet("port") {
				cfg.Port = ctx.Int("port")
			}
			if ctx.IsSet("heartbeat-interval") {
				d, err := time.ParseDuration(ctx.String("heartbeat-interval"))
				if err != nil {
					return fmt.Errorf("parsing heartbeat interval: %w", err)
				}
				cfg.HeartbeatInterval = d
			}
			if ctx.IsSet("dial-timeout") {
				d, err := time.ParseDuration(ctx.String("dial-timeout"))
				if err != nil {
					return fmt.Errorf("parsing dial timeout: %w", err)
				}
				cfg.DialTimeout = d
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			if !ctx.Bool("debug") {
				logger = logger.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel))
			}

			c := client.New(cfg.Host, cfg.Port,
				client.WithLogger(logger),
				client.WithHeartbeatInterval(cfg.HeartbeatInterval),
				client.WithDialTimeout(cfg.DialTimeout),
			)
			defer c.Close()

			res, err := c.Execute(ctx.Args().First(), ctx.Args().Tail()...)
			if err != nil {
				return err
			}

			fmt.Fprint(ctx.App.Writer, res.Stdout)
			fmt.Fprint(ctx.App.ErrWriter, res.Stderr)
			if res.ExitCode != 0 {
				return cli.Exit("", res.ExitCode)
			}
			return nil
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
