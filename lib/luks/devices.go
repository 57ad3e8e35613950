// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package luks

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
)

const luksFilesystem = "crypto_LUKS"

// Device is an encrypted block device.
type Device struct {
	// Path is the device node, e.g. /dev/sda2.
	Path string

	// FilesystemLabel is the LUKS header label, possibly empty.
	FilesystemLabel string

	// Size is lsblk's human-readable size, e.g. "20G".
	Size string

	// Open is true when a mapping for the device already exists.
	Open bool
}

// Label is the human description shown next to the prompt.
func (d Device) Label() string {
	switch {
	case d.FilesystemLabel != "" && d.Size != "":
		return fmt.Sprintf("%s (%s)", d.FilesystemLabel, d.Size)
	case d.FilesystemLabel != "":
		return d.FilesystemLabel
	default:
		return d.Size
	}
}

// MapperName is the device-mapper name used when opening the device.
func (d Device) MapperName() string {
	return "cr_" + filepath.Base(d.Path)
}

type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	FSType   *string       `json:"fstype"`
	Label    *string       `json:"label"`
	Size     *string       `json:"size"`
	Children []lsblkDevice `json:"children"`
}

// ListDevices returns the LUKS devices reported by lsblk.
func ListDevices(ctx context.Context, runner Runner) ([]Device, error) {
	output, err := runner.Output(ctx, "lsblk", "--json", "--paths", "--output", "NAME,TYPE,FSTYPE,LABEL,SIZE")
	if err != nil {
		return nil, fmt.Errorf("listing block devices: %w", err)
	}
	return parseLsblk(output)
}

func parseLsblk(output []byte) ([]Device, error) {
	var parsed lsblkOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parsing lsblk output: %w", err)
	}
	var devices []Device
	var walk func([]lsblkDevice)
	walk = func(entries []lsblkDevice) {
		for _, entry := range entries {
			if value(entry.FSType) == luksFilesystem {
				devices = append(devices, Device{
					Path:            entry.Name,
					FilesystemLabel: value(entry.Label),
					Size:            value(entry.Size),
					Open:            hasCryptChild(entry),
				})
			}
			walk(entry.Children)
		}
	}
	walk(parsed.BlockDevices)
	return devices, nil
}

func hasCryptChild(entry lsblkDevice) bool {
	for _, child := range entry.Children {
		if child.Type == "crypt" {
			return true
		}
	}
	return false
}

func value(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}
