package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
	"github.com/kurochkinivan/tailwind_control/internal/simulator"
)

const (
	exitCodeOK = iota
	exitCodeInputErr
	exitCodeInternalErr
)

const shutdownTimeout = 5 * time.Second

type flags struct {
	addr        string
	token       string
	deviceID    string
	firmware    string
	doors       int
	settleAfter int
	jamDoor     int
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	exitCode, err := Run(ctx, log)
	if err != nil {
		log.ErrorContext(ctx, "device simulator failed", slog.String("err", err.Error()))
	}

	stop()
	os.Exit(exitCode)
}

func Run(ctx context.Context, log *slog.Logger) (int, error) {
	f := parseFlags()

	if err := f.validate(); err != nil {
		return exitCodeInputErr, fmt.Errorf("invalid flags: %w", err)
	}

	doors := make([]simulator.DoorConfig, f.doors)
	for i := range doors {
		doors[i].State = domain.DoorStateClosed
		if i+1 == f.jamDoor {
			doors[i].Jammed = true
		}
	}

	dev := simulator.New(simulator.Config{
		Token:           f.token,
		DeviceID:        f.deviceID,
		FirmwareVersion: f.firmware,
		Doors:           doors,
		SettleAfter:     f.settleAfter,
	})

	server := &http.Server{
		Addr:         f.addr,
		Handler:      dev.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	log.InfoContext(ctx, "device simulator listening",
		slog.String("addr", f.addr),
		slog.Int("doors", f.doors),
		slog.String("token", f.token),
	)

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return exitCodeInternalErr, fmt.Errorf("failed to serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return exitCodeInternalErr, fmt.Errorf("failed to shut down server: %w", err)
		}
	}

	log.InfoContext(ctx, "device simulator stopped")

	return exitCodeOK, nil
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.addr, "addr", ":8888", "listen address")
	flag.StringVar(&f.token, "token", "123456", "local control token the simulator accepts")
	flag.StringVar(&f.deviceID, "device-id", "_3c_e9_e_6d_21_84_", "device identifier to report")
	flag.StringVar(&f.firmware, "firmware", "10.10", "firmware version to report")
	flag.IntVar(&f.doors, "doors", 2, "number of doors (1-3)")
	flag.IntVar(&f.settleAfter, "settle-after", 1, "status reads before a commanded door settles")
	flag.IntVar(&f.jamDoor, "jam-door", 0, "door number that never finishes moving, 0 disables")
	flag.Parse()
	return f
}

func (f *flags) validate() error {
	if f.doors < 1 || f.doors > 3 {
		return fmt.Errorf("doors must be between 1 and 3, got %d", f.doors)
	}

	if f.settleAfter < 0 {
		return fmt.Errorf("settle-after must not be negative, got %d", f.settleAfter)
	}

	if f.jamDoor < 0 || f.jamDoor > f.doors {
		return fmt.Errorf("jam-door must be between 0 and %d, got %d", f.doors, f.jamDoor)
	}

	if f.token == "" {
		return errors.New("token is required")
	}

	return nil
}
