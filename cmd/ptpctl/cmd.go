// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/backend"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/metadata"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport/ptpip"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport/usb"
)

// context is the context struct required by kong command line parser.
type context struct{}

// cli is the main command line interface struct required by kong command
// line parser.
var cli struct {
	Discover     discoverCmd     `cmd:"" help:"List imaging devices visible to the USB and IP backends"`
	Info         infoCmd         `cmd:"" help:"Connect to a device and dump its device info and property cache"`
	GetProperty  getPropertyCmd  `cmd:"" name:"get-property" help:"Read a cached device property"`
	SetProperty  setPropertyCmd  `cmd:"" name:"set-property" help:"Write a device property"`
	Capture      captureCmd      `cmd:"" help:"Download the most recently captured image"`
	LiveView     liveViewCmd     `cmd:"" name:"live-view" help:"Download one live-view frame"`
	SettingsGet  settingsGetCmd  `cmd:"" name:"settings-get" help:"Download the camera-settings blob"`
	SettingsPut  settingsPutCmd  `cmd:"" name:"settings-put" help:"Upload a previously downloaded camera-settings blob"`
	ServeMetrics serveMetricsCmd `cmd:"" name:"serve-metrics" help:"Serve Prometheus metrics for one connected device"`
}

// newRegistry wires a Registry against both concrete backends; a WIA
// backend would be added here too once a native binding exists (spec §4.2
// names it a collaborator out of scope for this library).
func newRegistry() *backend.Registry {
	reg := backend.NewRegistry()
	reg.AddBackend(usb.NewBackend())
	reg.AddBackend(ptpip.NewBackend())
	return reg
}

// findDevice matches query against a discovered device's backend-qualified
// label or its 0-based position in the discovery order, so scripts can
// address a device without knowing its exact serial number ahead of time.
func findDevice(devices []*backend.DeviceInfo, query string) (*backend.DeviceInfo, error) {
	if i, err := strconv.Atoi(query); err == nil {
		if i < 0 || i >= len(devices) {
			return nil, fmt.Errorf("device index %d out of range (found %d devices)", i, len(devices))
		}
		return devices[i], nil
	}
	for _, d := range devices {
		if strings.Contains(d.String(), query) || strings.Contains(d.Serial, query) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no discovered device matches %q", query)
}

// connectByQuery discovers, opens, and connects the session for the device
// matching query, returning everything a caller needs to tear the
// connection down again.
func connectByQuery(query string) (*backend.Registry, *backend.Device, *ptp.Session, error) {
	reg := newRegistry()
	devices, err := reg.RefreshList()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("RefreshList: %w", err)
	}
	info, err := findDevice(devices, query)
	if err != nil {
		return nil, nil, nil, err
	}
	dev, err := reg.OpenDevice(info)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("OpenDevice(%s): %w", info, err)
	}
	s := ptp.NewSession(dev.Transport, ptp.WithControlMetadata(metadata.Lookup))
	if err := s.Connect(); err != nil {
		_ = reg.CloseDevice(dev)
		return nil, nil, nil, fmt.Errorf("Connect(%s): %w", info, err)
	}
	return reg, dev, s, nil
}

func closeSession(reg *backend.Registry, dev *backend.Device, s *ptp.Session) {
	_ = s.Close()
	_ = reg.CloseDevice(dev)
}
