// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"fmt"

	usbhost "github.com/daedaluz/gousb"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/backend"
)

// Backend discovers Sony Still-Image/PTP USB devices synchronously (spec
// §4.3): FindDevices is called fresh on every RefreshList, filtered by
// vendor id and the presence of a Still-Image interface.
type Backend struct {
	opened map[*backend.DeviceInfo]*usbhost.Device
}

func NewBackend() *Backend {
	return &Backend{opened: map[*backend.DeviceInfo]*usbhost.Device{}}
}

func (b *Backend) Type() backend.Type { return backend.TypeUSB }

func (b *Backend) RefreshList() ([]*backend.DeviceInfo, error) {
	devs, err := usbhost.FindDevices(func(d *usbhost.Device) bool {
		if d.GetDeviceDescriptor().IDVendor != vendorSony {
			return false
		}
		return IsPTPDevice(d)
	})
	if err != nil {
		return nil, fmt.Errorf("usb: enumerate devices: %w", err)
	}
	out := make([]*backend.DeviceInfo, 0, len(devs))
	for _, d := range devs {
		desc := d.GetDeviceDescriptor()
		info := &backend.DeviceInfo{
			Backend:   backend.TypeUSB,
			Product:   fmt.Sprintf("usb:%04x:%04x", desc.IDVendor, desc.IDProduct),
			VendorID:  desc.IDVendor,
			ProductID: desc.IDProduct,
			BcdDevice: desc.BcdDevice,
			Handle:    d,
		}
		out = append(out, info)
	}
	return out, nil
}

// NeedsRefresh always returns false: this backend has no OS hot-plug
// notification wired in (spec §4.3's hot-plug flag is an OS-specific
// collaborator out of scope per spec §1).
func (b *Backend) NeedsRefresh() bool { return false }

func (b *Backend) IsRefreshingList() bool { return false }

func (b *Backend) PollListUpdates() ([]*backend.DeviceInfo, error) { return nil, nil }

func (b *Backend) OpenDevice(info *backend.DeviceInfo) (*backend.Device, error) {
	dev, ok := info.Handle.(*usbhost.Device)
	if !ok {
		return nil, fmt.Errorf("usb: DeviceInfo.Handle is not a *usbhost.Device")
	}
	tr, err := Open(dev)
	if err != nil {
		return nil, err
	}
	b.opened[info] = dev
	return &backend.Device{Info: info, Transport: tr}, nil
}

func (b *Backend) CloseDevice(dev *backend.Device) error {
	delete(b.opened, dev.Info)
	return dev.Transport.Close()
}

func (b *Backend) Close() error {
	var firstErr error
	for _, dev := range b.opened {
		if err := dev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.opened = map[*backend.DeviceInfo]*usbhost.Device{}
	return firstErr
}
