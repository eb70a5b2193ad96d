// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backend implements the device registry (L3) that fans out
// list/open/close operations across the active per-transport backends
// (L2), mirroring PTPDeviceList in ptp-device-list.h and the per-feature
// dispatch shape of pkg/core/dev.go's Discovery0.
package backend

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport"
)

// Type identifies which backend discovered or owns a device.
type Type int

const (
	TypeUSB Type = iota
	TypeIP
	TypeWIA
)

func (t Type) String() string {
	switch t {
	case TypeUSB:
		return "usb"
	case TypeIP:
		return "ip"
	case TypeWIA:
		return "wia"
	default:
		return "unknown"
	}
}

// DeviceInfo is a discovered-but-not-yet-opened device record (spec §3).
type DeviceInfo struct {
	Backend      Type
	Manufacturer string
	Product      string
	Serial       string

	// USB-specific, zero for non-USB backends.
	VendorID, ProductID, BcdDevice uint16

	// IP-specific, empty for non-IP backends.
	NetworkAddress string

	// Handle is an opaque backend-specific identifier (USB bus/address
	// pair, IP host string, ...) used by the owning backend's OpenDevice.
	Handle any
}

func (d *DeviceInfo) String() string {
	return fmt.Sprintf("%s:%s (%s, backend=%s)", d.Manufacturer, d.Product, d.Serial, d.Backend)
}

// Device is an opened DeviceInfo bound to a live Transport (spec §3).
type Device struct {
	Info      *DeviceInfo
	Transport transport.Transport
	Connected bool

	logger *log.Logger
}

func (d *Device) Logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// Backend is the per-transport discovery/open contract (spec §4.3).
type Backend interface {
	Type() Type

	// RefreshList performs (synchronous or asynchronous) discovery and
	// appends/re-populates DeviceInfo entries into the shared list.
	RefreshList() ([]*DeviceInfo, error)
	// NeedsRefresh is a cheap hot-plug hint; backends that cannot detect
	// hot-plug always return false.
	NeedsRefresh() bool
	// IsRefreshingList reports whether an asynchronous discovery (e.g.
	// the IP backend's SSDP poll) is still in flight.
	IsRefreshingList() bool
	// PollListUpdates drains incremental discovery results for
	// asynchronous backends; synchronous backends return nil.
	PollListUpdates() ([]*DeviceInfo, error)

	OpenDevice(info *DeviceInfo) (*Device, error)
	CloseDevice(dev *Device) error

	Close() error
}

var ErrBackendUnavailable = errors.New("backend: no backend of the requested type is registered")

// Registry aggregates Backends (spec §4.3's Registry). It owns the default
// logger handed to each Device it opens (backends keep their own), matching the teacher's
// functional-options session configuration.
type Registry struct {
	mu       sync.Mutex
	backends map[Type]Backend
	devices  []*DeviceInfo
	open     []*Device
	logger   *log.Logger
}

type RegistryOpt func(*Registry)

// WithLogger attaches a logger for registry and backend diagnostics. A nil
// logger (the default) silences logging, matching the teacher's pattern of
// an optional *log.Logger field rather than a structured-logging handler.
func WithLogger(l *log.Logger) RegistryOpt {
	return func(r *Registry) { r.logger = l }
}

func NewRegistry(opts ...RegistryOpt) *Registry {
	r := &Registry{backends: map[Type]Backend{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) AddBackend(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Type()] = b
}

func (r *Registry) GetBackend(t Type) Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backends[t]
}

// RefreshList dispatches to every registered backend and replaces the
// registry's flat device list with the concatenation of their results.
func (r *Registry) RefreshList() ([]*DeviceInfo, error) {
	r.mu.Lock()
	backends := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.Unlock()

	var all []*DeviceInfo
	for _, b := range backends {
		devs, err := b.RefreshList()
		if err != nil {
			if r.logger != nil {
				r.logger.Printf("backend %s: refresh failed: %v", b.Type(), err)
			}
			continue
		}
		all = append(all, devs...)
	}

	r.mu.Lock()
	r.devices = all
	r.mu.Unlock()
	return all, nil
}

// PollListUpdates drains incremental results from every backend whose
// discovery is asynchronous (the IP backend's SSDP window) and merges any
// newly found devices into the registry's flat list.
func (r *Registry) PollListUpdates() ([]*DeviceInfo, error) {
	r.mu.Lock()
	backends := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.Unlock()

	var newly []*DeviceInfo
	for _, b := range backends {
		if !b.IsRefreshingList() {
			continue
		}
		devs, err := b.PollListUpdates()
		if err != nil {
			if r.logger != nil {
				r.logger.Printf("backend %s: poll failed: %v", b.Type(), err)
			}
			continue
		}
		newly = append(newly, devs...)
	}

	if len(newly) > 0 {
		r.mu.Lock()
		r.devices = append(r.devices, newly...)
		r.mu.Unlock()
	}
	return newly, nil
}

// NeedsRefresh reports whether any backend has a pending hot-plug hint.
func (r *Registry) NeedsRefresh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.backends {
		if b.NeedsRefresh() {
			return true
		}
	}
	return false
}

// PollDisconnects marks previously opened Devices whose owning backend
// reports itself out of date as disconnected, without closing their
// transport (spec §4.8 supplement): the caller decides whether to
// reconnect.
func (r *Registry) PollDisconnects() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.open {
		b, ok := r.backends[d.Info.Backend]
		if !ok {
			continue
		}
		if b.NeedsRefresh() {
			d.Connected = false
		}
	}
}

func (r *Registry) Devices() []*DeviceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*DeviceInfo, len(r.devices))
	copy(out, r.devices)
	return out
}

// OpenDevice routes to the backend named by info.Backend.
func (r *Registry) OpenDevice(info *DeviceInfo) (*Device, error) {
	r.mu.Lock()
	b, ok := r.backends[info.Backend]
	r.mu.Unlock()
	if !ok {
		return nil, ErrBackendUnavailable
	}
	dev, err := b.OpenDevice(info)
	if err != nil {
		return nil, err
	}
	dev.logger = r.logger
	dev.Connected = true

	r.mu.Lock()
	r.open = append(r.open, dev)
	r.mu.Unlock()
	return dev, nil
}

// CloseDevice routes to the backend that opened dev and removes it from
// the registry's open-device list.
func (r *Registry) CloseDevice(dev *Device) error {
	r.mu.Lock()
	b, ok := r.backends[dev.Info.Backend]
	r.mu.Unlock()
	if !ok {
		return ErrBackendUnavailable
	}
	err := b.CloseDevice(dev)

	r.mu.Lock()
	for i, d := range r.open {
		if d == dev {
			r.open = append(r.open[:i], r.open[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return err
}

// Close tears down every registered backend. Destroying a backend first
// closes all of its open Devices, matching spec §3's lifecycle invariant.
func (r *Registry) Close() error {
	r.mu.Lock()
	open := append([]*Device(nil), r.open...)
	backends := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.Unlock()

	for _, d := range open {
		_ = r.CloseDevice(d)
	}
	var firstErr error
	for _, b := range backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
