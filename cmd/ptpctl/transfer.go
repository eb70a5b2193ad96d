// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
)

type captureCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
	Out    string `flag:"" required:"" short:"o" help:"Path to write the downloaded image"`
}

// Run downloads the device's most recently captured photo (spec §4.6
// "Image download") and writes it verbatim to Out.
func (c *captureCmd) Run(ctx *context) error {
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	data, info, err := s.GetCapturedImage()
	if err != nil {
		return fmt.Errorf("GetCapturedImage: %w", err)
	}
	if err := os.WriteFile(c.Out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	fmt.Printf("wrote %d bytes (%s) to %s\n", len(data), info.Filename, c.Out)
	return nil
}

type liveViewCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
	Out    string `flag:"" required:"" short:"o" help:"Path to write the live-view image frame"`
}

// Run downloads one live-view frame (spec §4.6 "Live-view stream") and
// reports any focal-frame metadata the device attached, without looping:
// repeated polling is left to the caller.
func (c *liveViewCmd) Run(ctx *context) error {
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	lv, err := s.GetLiveView()
	if err != nil {
		return fmt.Errorf("GetLiveView: %w", err)
	}
	if err := os.WriteFile(c.Out, lv.Image, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(lv.Image), c.Out)
	if lv.Focal != nil {
		fmt.Printf("focal frames: %d (denominators %d/%d)\n", len(lv.Focal.Frames), lv.Focal.XDenominator, lv.Focal.YDenominator)
	}
	return nil
}

type settingsGetCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
	Out    string `flag:"" required:"" short:"o" help:"Path to write the camera-settings blob"`
}

// Run downloads the opaque camera-settings blob (spec §4.7) for later
// reupload with settings-put.
func (c *settingsGetCmd) Run(ctx *context) error {
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	data, err := s.GetCameraSettingsFile()
	if err != nil {
		return fmt.Errorf("GetCameraSettingsFile: %w", err)
	}
	if err := os.WriteFile(c.Out, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), c.Out)
	return nil
}

type settingsPutCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
	In     string `arg:"" type:"accessiblefile" help:"Path to a previously downloaded camera-settings blob"`
}

// Run uploads a camera-settings blob (spec §4.7) back to the device.
func (c *settingsPutCmd) Run(ctx *context) error {
	data, err := os.ReadFile(c.In)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.In, err)
	}
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	if err := s.PutCameraSettingsFile(data); err != nil {
		return fmt.Errorf("PutCameraSettingsFile: %w", err)
	}
	fmt.Printf("uploaded %d bytes from %s\n", len(data), c.In)
	return nil
}
