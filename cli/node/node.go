// Package node wires the "node" subcommand: load configuration, start
// the Address Manager and Peer tasks, and run until interrupted.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rustybit-go/rustybit/config"
	"github.com/rustybit-go/rustybit/pkg/network"
	"github.com/rustybit-go/rustybit/pkg/network/metrics"
)

var configFlag = &cli.StringFlag{
	Name:  "config-file",
	Usage: "Path to a YAML configuration file (defaults compiled in if omitted)",
}

var seedFlag = &cli.StringSliceFlag{
	Name:  "seed",
	Usage: "Outbound seed address host:port (repeatable)",
}

// NewCommands returns the "node" command.
func NewCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "node",
			Usage:     "Start the rustybit node",
			UsageText: "rustybit node [--config-file file] [--seed host:port]...",
			Action:    startNode,
			Flags:     []cli.Flag{configFlag, seedFlag},
		},
	}
}

func startNode(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config-file"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return cli.Exit(err, 1)
		}
		cfg = loaded
	}

	seeds := c.StringSlice("seed")
	if len(seeds) == 0 {
		seeds = cfg.P2P.SeedAddresses
	}
	if len(seeds) == 0 {
		return cli.Exit(fmt.Errorf("no seed addresses given: pass --seed or set P2P.SeedAddresses"), 1)
	}

	log, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer log.Sync()

	metrics.Register()

	netCfg := network.Config{
		Magic:       uint32(cfg.Network),
		Services:    cfg.P2P.Services,
		UserAgent:   cfg.P2P.UserAgent,
		StartHeight: 0,
		BestHeight:  func() uint32 { return 0 },
	}

	srv := network.NewServer(netCfg, log)

	ctx := graceContext()
	srv.Run(ctx, seeds)
	return nil
}

func graceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}
