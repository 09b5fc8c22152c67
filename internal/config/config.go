package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	Device
	Operate
}

type Device struct {
	Host           string
	Token          string
	RequestTimeout time.Duration
}

type Operate struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		Device: Device{
			Host:           cmd.String("host"),
			Token:          cmd.String("token"),
			RequestTimeout: cmd.Duration("timeout"),
		},
		Operate: Operate{
			PollInterval: cmd.Duration("poll-interval"),
			MaxWait:      cmd.Duration("max-wait"),
		},
	}
}
