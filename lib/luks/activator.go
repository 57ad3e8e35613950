// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package luks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/dinstaller/lib/question"
)

const defaultMaxAttempts = 3

// Outcome is how a device's activation ended.
type Outcome string

const (
	OutcomeActivated   Outcome = "activated"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeAlreadyOpen Outcome = "already_open"
	OutcomeGaveUp      Outcome = "gave_up"
)

// Result reports one device.
type Result struct {
	Device   Device
	Outcome  Outcome
	Attempts int
}

// Activator asks for passphrases and opens LUKS devices.
type Activator struct {
	Registry *question.Registry
	Runner   Runner
	Logger   *slog.Logger

	// MaxAttempts bounds the passphrase prompts per device. Zero means
	// three.
	MaxAttempts int
}

// ActivateAll handles every LUKS device lsblk reports. Per-device
// failures are logged and reported in the results; only a listing
// failure or cancellation of ctx ends the run early.
func (a *Activator) ActivateAll(ctx context.Context) ([]Result, error) {
	devices, err := ListDevices(ctx, a.Runner)
	if err != nil {
		return nil, err
	}
	a.logger().Info("probing encrypted devices", "count", len(devices))

	results := make([]Result, 0, len(devices))
	for _, device := range devices {
		if device.Open {
			results = append(results, Result{Device: device, Outcome: OutcomeAlreadyOpen})
			continue
		}
		result, err := a.Activate(ctx, device)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Activate asks for the passphrase of device until cryptsetup accepts
// it, the user skips, or MaxAttempts is reached. The error is non-nil
// only when ctx ends.
func (a *Activator) Activate(ctx context.Context, device Device) (Result, error) {
	logger := a.logger().With("device", device.Path)
	result := Result{Device: device, Outcome: OutcomeGaveUp}

	for attempt := 1; attempt <= a.maxAttempts(); attempt++ {
		result.Attempts = attempt
		q := question.NewLuksActivation(device.Path, promptText(device), device.Label(), uint8(attempt))

		answer, err := a.Registry.Ask(ctx, q)
		password := q.Password()
		q.Release()
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			// Deleted by a client or timed out: nobody is going to
			// answer, so leave the device locked.
			logger.Warn("encrypted device question unanswered", "error", err)
			result.Outcome = OutcomeSkipped
			return result, nil
		}

		if answer != question.OptionDecrypt {
			logger.Info("encrypted device skipped")
			result.Outcome = OutcomeSkipped
			return result, nil
		}
		if password == "" {
			logger.Warn("decrypt chosen without a passphrase", "attempt", attempt)
			continue
		}

		if err := a.open(ctx, device, password); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("opening encrypted device failed", "attempt", attempt, "error", err)
			continue
		}
		logger.Info("encrypted device activated", "attempt", attempt, "mapper", device.MapperName())
		result.Outcome = OutcomeActivated
		return result, nil
	}

	logger.Warn("giving up on encrypted device", "attempts", result.Attempts)
	return result, nil
}

func (a *Activator) open(ctx context.Context, device Device, password string) error {
	key := []byte(password)
	defer clear(key)
	err := a.Runner.RunWithInput(ctx, key,
		"cryptsetup", "open", "--type", "luks", "--key-file", "-",
		device.Path, device.MapperName())
	if err != nil {
		return fmt.Errorf("cryptsetup open %s: %w", device.Path, err)
	}
	return nil
}

func promptText(device Device) string {
	label := device.Label()
	if label == "" {
		return fmt.Sprintf("The device %s is encrypted.", device.Path)
	}
	return fmt.Sprintf("The device %s %s is encrypted.", device.Path, label)
}

func (a *Activator) maxAttempts() int {
	if a.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	// The attempt counter is a byte on the bus.
	return min(a.MaxAttempts, 255)
}

func (a *Activator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}
