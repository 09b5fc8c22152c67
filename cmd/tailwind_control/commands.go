package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kurochkinivan/tailwind_control/internal/config"
	"github.com/kurochkinivan/tailwind_control/internal/discovery"
	"github.com/kurochkinivan/tailwind_control/internal/domain"
	"github.com/kurochkinivan/tailwind_control/internal/tailwind"
	"github.com/urfave/cli/v3"
)

const maxDoors = 3

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show device and door status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "table",
				Usage:   "Set output format: table, json or csv",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, closeSession, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeSession()

			status, err := client.Status(ctx)
			if err != nil {
				return describeError(err)
			}

			return renderStatus(os.Stdout, cmd.String("output"), status)
		},
	}
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open a garage door and wait until it reports open",
		Flags: doorFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDoorCommand(ctx, cmd, domain.DoorCommandOpen)
		},
	}
}

func closeCommand() *cli.Command {
	return &cli.Command{
		Name:  "close",
		Usage: "Close a garage door and wait until it reports closed",
		Flags: doorFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDoorCommand(ctx, cmd, domain.DoorCommandClose)
		},
	}
}

func ledCommand() *cli.Command {
	return &cli.Command{
		Name:  "led",
		Usage: "Set status LED brightness",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "brightness",
				Aliases: []string{"b"},
				Value:   100,
				Usage:   "Set LED brightness in percent (0-100)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, closeSession, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeSession()

			brightness := int(cmd.Int("brightness"))
			if err := client.SetLEDBrightness(ctx, brightness); err != nil {
				return describeError(err)
			}

			fmt.Printf("status LED brightness set to %d%%\n", brightness)
			return nil
		},
	}
}

func identifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "identify",
		Usage: "Blink the status LED to identify the device",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, closeSession, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeSession()

			if err := client.Identify(ctx); err != nil {
				return describeError(err)
			}

			fmt.Println("device is blinking its status LED")
			return nil
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan the local network for Tailwind devices",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "scan-timeout",
				Value: 10 * time.Second,
				Usage: "Set how long to browse mDNS for devices",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, err := logger(ctx)
			if err != nil {
				return err
			}

			devices, err := discovery.Scan(ctx, log, cmd.Duration("scan-timeout"))
			if err != nil {
				return err
			}

			if len(devices) == 0 {
				fmt.Println("no Tailwind devices found")
				return nil
			}

			return renderDiscovered(os.Stdout, devices)
		},
	}
}

func doorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "door",
			Aliases: []string{"d"},
			Value:   1,
			Usage:   "Set door number (1-based)",
		},
	}
}

func runDoorCommand(ctx context.Context, cmd *cli.Command, command domain.DoorCommand) error {
	doorNumber := int(cmd.Int("door"))
	if doorNumber < 1 || doorNumber > maxDoors {
		return fmt.Errorf("door must be between 1 and %d, got %d", maxDoors, doorNumber)
	}

	client, closeSession, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeSession()

	door, err := client.Operate(ctx, doorNumber-1, command)
	if err != nil {
		var opTimeout *tailwind.OperationTimeoutError
		if errors.As(err, &opTimeout) {
			return fmt.Errorf("door %d did not finish moving in time, last reported state is %q",
				doorNumber, opTimeout.LastKnown.State)
		}
		return describeError(err)
	}

	fmt.Printf("door %d is now %s\n", doorNumber, doorStateLabel(door.State))
	return nil
}

func connect(ctx context.Context, cmd *cli.Command) (*tailwind.Client, func(), error) {
	log, err := logger(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := config.Load(cmd)
	if cfg.Host == "" {
		return nil, nil, errors.New("device host is required, pass --host or set device.host in the config file")
	}
	if cfg.Token == "" {
		return nil, nil, errors.New("device token is required, pass --token or set device.token in the config file")
	}

	session, err := tailwind.Open(ctx, log, cfg.Host, cfg.Token,
		tailwind.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, nil, describeError(err)
	}

	client := tailwind.NewClient(log, session,
		tailwind.WithPollInterval(cfg.PollInterval),
		tailwind.WithOperateMaxWait(cfg.MaxWait),
	)

	return client, session.Close, nil
}

func logger(ctx context.Context) (*slog.Logger, error) {
	log, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok {
		return nil, errors.New("failed to get logger from context")
	}

	return log, nil
}

func describeError(err error) error {
	switch {
	case errors.Is(err, tailwind.ErrAuthentication):
		return fmt.Errorf("%w\n\nfetch the 6 digit local control key for your device at\nhttps://web.gotailwind.com/client/integration/local-control-key\nand pass it via --token", err)
	case errors.Is(err, tailwind.ErrConnection):
		return fmt.Errorf("%w\n\nmake sure the device is powered on and connected to your network,\nuse the scan command to find its address", err)
	case errors.Is(err, tailwind.ErrUnsupportedFirmware):
		return fmt.Errorf("%w\n\nonly firmware 10.10 and newer supports local control, please update the device", err)
	default:
		return err
	}
}
