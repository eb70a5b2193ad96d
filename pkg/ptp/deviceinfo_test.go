// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptp

import (
	"testing"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

func writeU16Array(w *ptpio.Writer, vals []uint16) {
	w.U32LE(uint32(len(vals)))
	for _, v := range vals {
		w.U16LE(v)
	}
}

func buildDeviceInfo() []byte {
	w := ptpio.NewWriter()
	w.U16LE(100)          // standard version
	w.U32LE(0x00000011)   // vendor extension id
	w.U16LE(100)          // vendor extension version
	w.PTPString("sony.net/SEN_PDI/1.0")
	w.U16LE(1) // functional mode
	writeU16Array(w, []uint16{0x1001, 0x1002})
	writeU16Array(w, []uint16{0x4001})
	writeU16Array(w, []uint16{0x5005, 0x5007})
	writeU16Array(w, []uint16{0x3801})
	writeU16Array(w, []uint16{0x3801})
	w.PTPString("Sony")
	w.PTPString("ILCE-7M4")
	w.PTPString("2.00")
	w.PTPString("0123456789")
	return w.Bytes()
}

func TestParseDeviceInfo(t *testing.T) {
	di, err := ParseDeviceInfo(buildDeviceInfo())
	if err != nil {
		t.Fatalf("ParseDeviceInfo() error = %v", err)
	}
	if di.Manufacturer != "Sony" || di.Model != "ILCE-7M4" {
		t.Fatalf("Manufacturer/Model = %q/%q; want Sony/ILCE-7M4", di.Manufacturer, di.Model)
	}
	if di.SerialNumber != "0123456789" {
		t.Fatalf("SerialNumber = %q; want 0123456789", di.SerialNumber)
	}
	if len(di.DeviceProperties) != 2 || di.DeviceProperties[1] != 0x5007 {
		t.Fatalf("DeviceProperties = %v; want [0x5005 0x5007]", di.DeviceProperties)
	}
	if di.VendorExtension != "sony.net/SEN_PDI/1.0" {
		t.Fatalf("VendorExtension = %q", di.VendorExtension)
	}
}

func TestParseDeviceInfoTruncatedErrors(t *testing.T) {
	full := buildDeviceInfo()
	if _, err := ParseDeviceInfo(full[:4]); err == nil {
		t.Fatal("ParseDeviceInfo(truncated) must error")
	}
}

func buildExtDeviceInfo(version uint16, props []uint16, ctrls []uint16) []byte {
	w := ptpio.NewWriter()
	w.U16LE(version)
	w.U32LE(uint32(len(props)))
	for _, p := range props {
		w.U16LE(p)
	}
	w.U32LE(uint32(len(ctrls)))
	for _, c := range ctrls {
		w.U16LE(c)
	}
	return w.Bytes()
}

func TestParseExtDeviceInfo(t *testing.T) {
	data := buildExtDeviceInfo(300, []uint16{0x5005, 0xD20D}, []uint16{0xD200})
	info, err := ParseExtDeviceInfo(data)
	if err != nil {
		t.Fatalf("ParseExtDeviceInfo() error = %v", err)
	}
	if info.ProtocolVersion != 300 {
		t.Fatalf("ProtocolVersion = %v; want 300", info.ProtocolVersion)
	}
	if len(info.SupportedProperties) != 2 || len(info.SupportedControls) != 1 {
		t.Fatalf("counts = %d/%d; want 2/1", len(info.SupportedProperties), len(info.SupportedControls))
	}
}
