package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"golang.org/x/sync/errgroup"
)

const (
	serviceType   = "_http._tcp"
	serviceDomain = "local."

	// Tailwind devices announce themselves as tailwind-<id>.local.
	hostPrefix = "tailwind-"
)

// Device is one Tailwind controller found on the local network. Discovery
// only yields reachable addresses and announcement metadata; talking to the
// device is the protocol client's job.
type Device struct {
	Host            string
	Addresses       []string
	Product         string
	DeviceID        string
	HardwareVersion string
	SoftwareVersion string
}

// Scan browses mDNS for the given duration and collects every Tailwind
// device that announced itself.
func Scan(ctx context.Context, log *slog.Logger, timeout time.Duration) ([]Device, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mdns resolver: %w", err)
	}

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)

	var devices []Device

	erg, browseCtx := errgroup.WithContext(browseCtx)

	erg.Go(func() error {
		// Browse closes the entries channel once the context expires
		if err := resolver.Browse(browseCtx, serviceType, serviceDomain, entries); err != nil {
			return fmt.Errorf("failed to browse %s: %w", serviceType, err)
		}

		return nil
	})

	erg.Go(func() error {
		for entry := range entries {
			device, ok := fromServiceEntry(entry)
			if !ok {
				log.DebugContext(browseCtx, "skipping non-tailwind service",
					slog.String("host", entry.HostName),
				)
				continue
			}

			log.InfoContext(browseCtx, "found tailwind device",
				slog.String("host", device.Host),
				slog.String("device_id", device.DeviceID),
			)

			devices = append(devices, device)
		}

		return nil
	})

	if err := erg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Host < devices[j].Host })

	return devices, nil
}

func fromServiceEntry(entry *zeroconf.ServiceEntry) (Device, bool) {
	host := strings.TrimSuffix(entry.HostName, ".")
	if !strings.HasPrefix(host, hostPrefix) {
		return Device{}, false
	}

	addresses := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addresses = append(addresses, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addresses = append(addresses, ip.String())
	}

	properties := parseText(entry.Text)

	return Device{
		Host:            host,
		Addresses:       addresses,
		Product:         properties["product"],
		DeviceID:        properties["device_id"],
		HardwareVersion: properties["HW ver"],
		SoftwareVersion: properties["SW ver"],
	}, true
}

func parseText(records []string) map[string]string {
	properties := make(map[string]string, len(records))
	for _, record := range records {
		key, value, found := strings.Cut(record, "=")
		if !found {
			continue
		}

		properties[key] = value
	}

	return properties
}
