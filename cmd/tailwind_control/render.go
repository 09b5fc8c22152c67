package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jszwec/csvutil"
	"github.com/kurochkinivan/tailwind_control/internal/discovery"
	"github.com/kurochkinivan/tailwind_control/internal/domain"
)

type doorRow struct {
	Door      int    `csv:"door" json:"door"`
	State     string `csv:"state" json:"state"`
	LockedOut bool   `csv:"locked_out" json:"locked_out"`
	Disabled  bool   `csv:"disabled" json:"disabled"`
}

type statusReport struct {
	Product          string    `json:"product"`
	DeviceID         string    `json:"device_id"`
	MACAddress       string    `json:"mac_address"`
	FirmwareVersion  string    `json:"firmware_version"`
	ProtocolVersion  string    `json:"protocol_version"`
	LEDBrightness    int       `json:"led_brightness"`
	NightModeEnabled bool      `json:"night_mode_enabled"`
	NumberOfDoors    int       `json:"number_of_doors"`
	Doors            []doorRow `json:"doors"`
}

func renderStatus(w io.Writer, format string, status *domain.DeviceStatus) error {
	switch format {
	case "table":
		return renderStatusTable(w, status)
	case "json":
		return renderStatusJSON(w, status)
	case "csv":
		return renderStatusCSV(w, status)
	default:
		return fmt.Errorf("unknown output format %q, use table, json or csv", format)
	}
}

func renderStatusTable(w io.Writer, status *domain.DeviceStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Product:\t%s\n", status.Product)
	fmt.Fprintf(tw, "Device ID:\t%s\n", status.DeviceID)
	fmt.Fprintf(tw, "MAC address:\t%s\n", status.MACAddress())
	fmt.Fprintf(tw, "Firmware:\t%s\n", status.FirmwareVersion)
	fmt.Fprintf(tw, "Protocol:\t%s\n", status.ProtocolVersion)
	fmt.Fprintf(tw, "LED brightness:\t%d%%\n", status.LEDBrightness)
	fmt.Fprintf(tw, "Night mode:\t%s\n", yesNo(status.NightModeEnabled))
	fmt.Fprintf(tw, "Doors:\t%d\n", status.NumberOfDoors)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "DOOR\tSTATE\tLOCKED OUT\tDISABLED")
	for _, row := range doorRows(status) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.Door, row.State, yesNo(row.LockedOut), yesNo(row.Disabled))
	}

	return tw.Flush()
}

func renderStatusJSON(w io.Writer, status *domain.DeviceStatus) error {
	report := statusReport{
		Product:          status.Product,
		DeviceID:         status.DeviceID,
		MACAddress:       status.MACAddress(),
		FirmwareVersion:  status.FirmwareVersion,
		ProtocolVersion:  status.ProtocolVersion,
		LEDBrightness:    status.LEDBrightness,
		NightModeEnabled: status.NightModeEnabled,
		NumberOfDoors:    status.NumberOfDoors,
		Doors:            doorRows(status),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderStatusCSV(w io.Writer, status *domain.DeviceStatus) error {
	data, err := csvutil.Marshal(doorRows(status))
	if err != nil {
		return fmt.Errorf("failed to marshal doors to csv: %w", err)
	}

	_, err = w.Write(data)
	return err
}

func renderDiscovered(w io.Writer, devices []discovery.Device) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "HOST\tADDRESSES\tPRODUCT\tDEVICE ID\tHW\tSW")
	for _, dev := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			dev.Host,
			strings.Join(dev.Addresses, ", "),
			dev.Product,
			dev.DeviceID,
			dev.HardwareVersion,
			dev.SoftwareVersion,
		)
	}

	return tw.Flush()
}

func doorRows(status *domain.DeviceStatus) []doorRow {
	rows := make([]doorRow, 0, len(status.Doors))
	for _, door := range status.Doors {
		rows = append(rows, doorRow{
			Door:      door.Index + 1,
			State:     doorStateLabel(door.State),
			LockedOut: door.LockedOut,
			Disabled:  door.Disabled,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Door < rows[j].Door })

	return rows
}

func doorStateLabel(state domain.DoorState) string {
	switch state {
	case domain.DoorStateOpen:
		return "open"
	case domain.DoorStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
