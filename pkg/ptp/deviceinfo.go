// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptp

import (
	"fmt"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

// DeviceInfo is the parsed body of a standard PTP GetDeviceInfo (0x1001)
// response (spec §4.4 "Connect sequence" step 5).
type DeviceInfo struct {
	StandardVersion    uint16
	VendorExtensionID  uint32
	VendorExtensionVer uint16
	VendorExtension    string
	FunctionalMode     uint16
	Operations         []uint16
	Events             []uint16
	DeviceProperties   []uint16
	CaptureFormats     []uint16
	ImageFormats       []uint16
	Manufacturer       string
	Model              string
	DeviceVersion      string
	SerialNumber       string
}

func readU16Array(r *ptpio.Reader) ([]uint16, error) {
	n, err := r.U32LE()
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		v, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseDeviceInfo decodes a GetDeviceInfo response body (spec §4.4 step 5).
func ParseDeviceInfo(data []byte) (*DeviceInfo, error) {
	r := ptpio.NewReader(data)
	di := &DeviceInfo{}

	var err error
	if di.StandardVersion, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: device info standard version: %w", err)
	}
	if di.VendorExtensionID, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: device info vendor extension id: %w", err)
	}
	if di.VendorExtensionVer, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: device info vendor extension version: %w", err)
	}
	if di.VendorExtension, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: device info vendor extension string: %w", err)
	}
	if di.FunctionalMode, err = r.U16LE(); err != nil {
		return nil, fmt.Errorf("ptp: device info functional mode: %w", err)
	}
	if di.Operations, err = readU16Array(r); err != nil {
		return nil, fmt.Errorf("ptp: device info operations: %w", err)
	}
	if di.Events, err = readU16Array(r); err != nil {
		return nil, fmt.Errorf("ptp: device info events: %w", err)
	}
	if di.DeviceProperties, err = readU16Array(r); err != nil {
		return nil, fmt.Errorf("ptp: device info device properties: %w", err)
	}
	if di.CaptureFormats, err = readU16Array(r); err != nil {
		return nil, fmt.Errorf("ptp: device info capture formats: %w", err)
	}
	if di.ImageFormats, err = readU16Array(r); err != nil {
		return nil, fmt.Errorf("ptp: device info image formats: %w", err)
	}
	if di.Manufacturer, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: device info manufacturer: %w", err)
	}
	if di.Model, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: device info model: %w", err)
	}
	if di.DeviceVersion, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: device info device version: %w", err)
	}
	if di.SerialNumber, err = r.PTPString(); err != nil {
		return nil, fmt.Errorf("ptp: device info serial number: %w", err)
	}
	return di, nil
}

// ExtDeviceInfo is the parsed body of an SDIO_GetExtDeviceInfo response
// (spec §4.4 "Connect sequence" step 3).
type ExtDeviceInfo struct {
	ProtocolVersion     ptp.ProtocolVersion
	SupportedProperties []ptp.PropCode
	SupportedControls   []ptp.ControlCode
}

// ParseExtDeviceInfo decodes an SDIO_GetExtDeviceInfo response body: a
// version, a count-prefixed property-code list, then a count-prefixed
// control-code list (spec §4.4 step 3).
func ParseExtDeviceInfo(data []byte) (*ExtDeviceInfo, error) {
	r := ptpio.NewReader(data)
	version, err := r.U16LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: ext device info version: %w", err)
	}
	propCount, err := r.U32LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: ext device info property count: %w", err)
	}
	props := make([]ptp.PropCode, propCount)
	for i := range props {
		v, err := r.U16LE()
		if err != nil {
			return nil, fmt.Errorf("ptp: ext device info property %d: %w", i, err)
		}
		props[i] = ptp.PropCode(v)
	}
	ctrlCount, err := r.U32LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: ext device info control count: %w", err)
	}
	ctrls := make([]ptp.ControlCode, ctrlCount)
	for i := range ctrls {
		v, err := r.U16LE()
		if err != nil {
			return nil, fmt.Errorf("ptp: ext device info control %d: %w", i, err)
		}
		ctrls[i] = ptp.ControlCode(v)
	}
	return &ExtDeviceInfo{ProtocolVersion: ptp.ProtocolVersion(version), SupportedProperties: props, SupportedControls: ctrls}, nil
}
