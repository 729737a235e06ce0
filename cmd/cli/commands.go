package main

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zeebo/errs"

	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth"
	"github.com/Philanthropists/bluetooth-manager/internal/bluetooth/bluetoothtypes"
	"github.com/Philanthropists/bluetooth-manager/internal/logging"
	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
)

var ErrUsage = errs.Class("usage")

const (
	discoveryPoll = 250 * time.Millisecond
	// longer than the adapter's own StopDiscovery timeout
	discoveryStopWait = 6 * time.Second
)

type action[T any] func(c *cli.Context, s *session) (T, error)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "adapter",
			Usage:  "show the adapter settings",
			Action: run(showAdapter),
		},
		{
			Name:      "alias",
			Usage:     "rename the adapter",
			ArgsUsage: "NAME",
			Action: run(func(c *cli.Context, s *session) (bluetoothtypes.AdapterInfo, error) {
				alias, err := firstArg(c)
				if err != nil {
					return bluetoothtypes.AdapterInfo{}, err
				}
				return setAndShow(c, s, func(ctx context.Context, a *bluetooth.Adapter) error {
					return a.SetAlias(ctx, alias)
				})
			}),
		},
		toggle("powered", "turn the adapter on or off", (*bluetooth.Adapter).SetPowered),
		toggle("pairable", "allow or refuse pairing", (*bluetooth.Adapter).SetPairable),
		toggle("discoverable", "make the adapter visible to other devices", (*bluetooth.Adapter).SetDiscoverable),
		{
			Name:      "discoverable-timeout",
			Usage:     "seconds the adapter stays discoverable, 0 for ever",
			ArgsUsage: "SECONDS",
			Action: run(func(c *cli.Context, s *session) (bluetoothtypes.AdapterInfo, error) {
				arg, err := firstArg(c)
				if err != nil {
					return bluetoothtypes.AdapterInfo{}, err
				}
				seconds, err := strconv.ParseUint(arg, 10, 32)
				if err != nil {
					return bluetoothtypes.AdapterInfo{}, ErrUsage.Wrap(err)
				}
				return setAndShow(c, s, func(ctx context.Context, a *bluetooth.Adapter) error {
					return a.SetDiscoverableTimeout(ctx, uint32(seconds))
				})
			}),
		},
		{
			Name:   "devices",
			Usage:  "list the devices known to the adapter",
			Action: run(listDevices),
		},
		{
			Name:  "discover",
			Usage: "look for devices in range and list them",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:    "timeout",
					Aliases: []string{"t"},
					Usage:   "how long to discover, defaults to the configured timeout",
				},
			},
			Action: run(discover),
		},
		{
			Name:      "connect",
			Usage:     "connect a known device",
			ArgsUsage: "ADDRESS",
			Action: run(func(c *cli.Context, s *session) (string, error) {
				return withDevice(c, s, (*bluetooth.Adapter).ConnectDevice)
			}),
		},
		{
			Name:      "disconnect",
			Usage:     "disconnect a known device",
			ArgsUsage: "ADDRESS",
			Action: run(func(c *cli.Context, s *session) (string, error) {
				return withDevice(c, s, (*bluetooth.Adapter).DisconnectDevice)
			}),
		},
		{
			Name:   "watch",
			Usage:  "print adapter and device changes as they happen",
			Action: watch,
		},
	}
}

// run opens a session, runs the action and prints its outcome.
func run[T any](do action[T]) cli.ActionFunc {
	return func(c *cli.Context) error {
		return report(c, execute(c, do))
	}
}

func execute[T any](c *cli.Context, do action[T]) result.Result[T, error] {
	s, err := openSession(c)
	if err != nil {
		return result.Failure[T](err)
	}
	defer s.Close()

	v, err := do(c, s)
	return result.From(v, err)
}

func report[T any](c *cli.Context, r result.Result[T, error]) error {
	if err := json.NewEncoder(c.App.Writer).Encode(r); err != nil {
		return errs.Wrap(err)
	}

	if r.IsError() {
		return cli.Exit("", 1)
	}

	return nil
}

func firstArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", ErrUsage.New("%s expects exactly one argument", c.Command.Name)
	}
	return c.Args().First(), nil
}

func showAdapter(_ *cli.Context, s *session) (bluetoothtypes.AdapterInfo, error) {
	return s.client.Adapter().AdapterInfo(), nil
}

func setAndShow(
	c *cli.Context,
	s *session,
	set func(ctx context.Context, a *bluetooth.Adapter) error,
) (bluetoothtypes.AdapterInfo, error) {
	a := s.client.Adapter()
	if err := set(c.Context, a); err != nil {
		return bluetoothtypes.AdapterInfo{}, err
	}
	return a.AdapterInfo(), nil
}

func toggle(name, usage string, set func(*bluetooth.Adapter, context.Context, bool) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "BOOL",
		Action: run(func(c *cli.Context, s *session) (bluetoothtypes.AdapterInfo, error) {
			arg, err := firstArg(c)
			if err != nil {
				return bluetoothtypes.AdapterInfo{}, err
			}
			on, err := strconv.ParseBool(arg)
			if err != nil {
				return bluetoothtypes.AdapterInfo{}, ErrUsage.Wrap(err)
			}
			return setAndShow(c, s, func(ctx context.Context, a *bluetooth.Adapter) error {
				return set(a, ctx, on)
			})
		}),
	}
}

func listDevices(_ *cli.Context, s *session) ([]bluetoothtypes.DeviceInfo, error) {
	return s.client.Adapter().KnownDevices(), nil
}

func withDevice(
	c *cli.Context,
	s *session,
	do func(*bluetooth.Adapter, context.Context, bluetoothtypes.Address) error,
) (string, error) {
	arg, err := firstArg(c)
	if err != nil {
		return "", err
	}
	addr, err := bluetoothtypes.ParseAddress(arg)
	if err != nil {
		return "", err
	}
	if err := do(s.client.Adapter(), c.Context, addr); err != nil {
		return "", err
	}
	return addr.String(), nil
}

// discover keeps the device list up to date through the event stream while
// the adapter is discovering, then returns what it knows.
func discover(c *cli.Context, s *session) ([]bluetoothtypes.DeviceInfo, error) {
	timeout := s.config.DiscoveryTimeout()
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout")
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	a := s.client.Adapter()

	events, err := a.Events(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.DiscoverDevices(ctx, timeout); err != nil {
		return nil, err
	}
	defer awaitDiscoveryEnd(a, discoveryStopWait)

	ticker := time.NewTicker(discoveryPoll)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return a.KnownDevices(), nil
			}
			logEvent(s.log, ev)
		case <-ticker.C:
			if !a.IsDiscovering() {
				return a.KnownDevices(), nil
			}
		}
	}
}

// awaitDiscoveryEnd cancels the discovery and blocks until the adapter has
// stopped it, or until wait elapses.
func awaitDiscoveryEnd(a *bluetooth.Adapter, wait time.Duration) {
	a.CancelDiscovering()

	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for a.IsDiscovering() {
		select {
		case <-deadline.C:
			return
		case <-ticker.C:
		}
	}
}

func logEvent(log *logging.Logger, ev result.Result[bluetoothtypes.AdapterEvent, error]) {
	if ev.IsError() {
		log.Warn("bad event", logging.Error(ev.GetError()))
		return
	}

	e := ev.Unwrap()
	if e.Change != nil {
		log.Debug("device event",
			logging.Stringer("kind", e.Change.Kind),
			logging.String("address", e.Change.Device.AddressString),
		)
		return
	}
	log.Debug("adapter event", logging.Stringer("kind", e.Kind))
}

// watch prints one JSON Result per line until interrupted. Failed events are
// printed too and do not end the stream.
func watch(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return report(c, result.Failure[bluetoothtypes.AdapterEvent](err))
	}
	defer s.Close()

	events, err := s.client.Adapter().Events(c.Context)
	if err != nil {
		return report(c, result.Failure[bluetoothtypes.AdapterEvent](err))
	}

	enc := json.NewEncoder(c.App.Writer)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return errs.Wrap(err)
		}
	}

	return nil
}
