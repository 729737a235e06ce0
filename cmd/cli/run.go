package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth"
	"github.com/Philanthropists/bluetooth-manager/internal/bluez"
	"github.com/Philanthropists/bluetooth-manager/internal/config"
	"github.com/Philanthropists/bluetooth-manager/internal/logging"
)

var GitCommit string

type backend interface {
	bluetooth.Backend
	Close() error
}

var dial = func() (backend, error) {
	c, err := bluez.Dial()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func version() string {
	if len(GitCommit) >= 3 {
		return GitCommit[:3]
	}
	return "dev"
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bluetooth-manager"
	app.Usage = "inspect and drive the bluetooth adapter of this machine"
	app.Version = version()
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "JSON config file",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "adapter to use, e.g. hci1",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "log debug messages",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool("debug") {
			logging.EnableDebug()
		}
		c.Context = logging.New().GetContext(c.Context)
		return nil
	}
	app.Commands = commands()

	return app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log := logging.New()
		log.Error("command failed", logging.Error(err))
		_ = log.Sync()
		stop()
		os.Exit(1)
	}
}

type session struct {
	backend backend
	client  *bluetooth.Client
	config  config.Config
	log     *logging.Logger
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}

	log := logging.FromContext(c.Context).With(logging.String("command", c.Command.Name))

	b, err := dial()
	if err != nil {
		return nil, err
	}

	client, err := bluetooth.NewClient(c.Context, b, bluetooth.Options{
		Adapter:          cfg.Adapter,
		DeviceExpiration: cfg.DeviceExpiration(),
		EventBacklog:     cfg.EventBacklog,
		Goroutines:       cfg.Goroutines,
		Log:              log,
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	return &session{
		backend: b,
		client:  client,
		config:  cfg,
		log:     log,
	}, nil
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		s.log.Warn("could not close bus connection", logging.Error(err))
	}
}
