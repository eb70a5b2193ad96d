// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metadata is the process-static code -> name/format table (spec
// §4.5): display names for property/control codes, and the per-code
// formatters behind get_property_as_string (spec §4.4 "Derived display").
// The table is frozen at init time and read under no lock.
package metadata

import (
	"fmt"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/descriptor"
)

// PropertyNames maps a known property code to its display name.
var PropertyNames = map[ptp.PropCode]string{
	ptp.DPCCompressionSetting:   "CompressionSetting",
	ptp.DPCWhiteBalance:         "WhiteBalance",
	ptp.DPCFNumber:              "FNumber",
	ptp.DPCFocusMode:            "FocusMode",
	ptp.DPCExposureMeteringMode: "ExposureMeteringMode",
	ptp.DPCFlashMode:            "FlashMode",
	ptp.DPCExposureProgramMode:  "ExposureProgramMode",
	ptp.DPCExposureCompensation: "ExposureCompensation",
	ptp.DPCCaptureMode:          "CaptureMode",
	ptp.DPCFlashCompensation:    "FlashCompensation",
	ptp.DPCDROHDRMode:           "DROHDRMode",
	ptp.DPCImageSize:            "ImageSize",
	ptp.DPCShutterSpeed:         "ShutterSpeed",
	ptp.DPCBatteryLevel:         "BatteryLevel",
	ptp.DPCColorTemperature:     "ColorTemperature",
	ptp.DPCWhiteBalanceGM:       "WhiteBalanceGM",
	ptp.DPCAspectRatio:          "AspectRatio",
	ptp.DPCAFStatus:             "AFStatus",
	ptp.DPCPredictedMaxFileSz:   "PredictedMaxFileSize",
	ptp.DPCPendingFiles:         "PendingFiles",
	ptp.DPCBatteryRemaining:     "BatteryRemaining",
	ptp.DPCPictureEffect:        "PictureEffect",
	ptp.DPCWhiteBalanceAB:       "WhiteBalanceAB",
	ptp.DPCISO:                  "ISO",
	ptp.DPCLiveViewStatus:       "LiveViewStatus",
}

func PropertyName(code ptp.PropCode) string {
	if n, ok := PropertyNames[code]; ok {
		return n
	}
	return fmt.Sprintf("Property(%#04x)", uint16(code))
}

// ControlMetadata is the static, wire-independent shape of a control that
// connect step 7 seeds into the cache for supported-control codes the
// device did not describe on the wire (spec §4.4 "connect sequence" step 7).
type ControlMetadata struct {
	Name     string
	DataType ptp.DataType
	Form     ptp.FormFlag
	Enum     []ptp.Value
	Range    descriptor.RangeForm
}

// ControlsTable is the static controls metadata table read by Lookup
// (connect step 7) and SupportsControl.
var ControlsTable = map[ptp.ControlCode]ControlMetadata{
	ptp.ControlCode(ptp.DPCFNumber): {
		Name: "FNumber", DataType: ptp.DTInt8, Form: ptp.FormRange,
		Range: descriptor.RangeForm{Min: ptp.I8(-8), Max: ptp.I8(8), Step: ptp.I8(1)},
	},
	ptp.ControlCode(ptp.DPCExposureCompensation): {
		Name: "ExposureCompensation", DataType: ptp.DTInt8, Form: ptp.FormRange,
		Range: descriptor.RangeForm{Min: ptp.I8(-8), Max: ptp.I8(8), Step: ptp.I8(1)},
	},
	ptp.ControlCode(ptp.DPCFlashCompensation): {
		Name: "FlashCompensation", DataType: ptp.DTInt8, Form: ptp.FormRange,
		Range: descriptor.RangeForm{Min: ptp.I8(-8), Max: ptp.I8(8), Step: ptp.I8(1)},
	},
	ptp.ControlCode(ptp.DPCShutterSpeed): {
		Name: "ShutterSpeed", DataType: ptp.DTInt8, Form: ptp.FormRange,
		Range: descriptor.RangeForm{Min: ptp.I8(-8), Max: ptp.I8(8), Step: ptp.I8(1)},
	},
	ptp.ControlCode(ptp.DPCISO): {
		Name: "ISO", DataType: ptp.DTInt8, Form: ptp.FormRange,
		Range: descriptor.RangeForm{Min: ptp.I8(-8), Max: ptp.I8(8), Step: ptp.I8(1)},
	},
}

// SupportsControl reports whether code names a known notch/button control,
// mirroring the original's static supports-control lookup table used to
// distinguish property from control descriptors on protocol 200 (spec §4.4
// parser step).
func SupportsControl(code ptp.ControlCode) bool {
	_, ok := ControlsTable[code]
	return ok
}

// Lookup resolves a supported-control code against ControlsTable, matching
// the shape pkg/ptp.ControlLookup expects for connect step 7 (spec §4.4
// step 7): pass metadata.Lookup to ptp.WithControlMetadata.
func Lookup(code ptp.ControlCode) (name string, dt ptp.DataType, form ptp.FormFlag, enum []ptp.Value, rng descriptor.RangeForm, ok bool) {
	m, ok := ControlsTable[code]
	if !ok {
		return "", 0, 0, nil, descriptor.RangeForm{}, false
	}
	return m.Name, m.DataType, m.Form, m.Enum, m.Range, true
}

// FormatFNumber renders an f-number value (hundredths of a stop, e.g. 800
// => "f/8.0") the way get_property_as_string does for DPC_F_NUMBER.
func FormatFNumber(v ptp.Value) string {
	return fmt.Sprintf("f/%.1f", float64(v.U)/100)
}

// FormatShutterSpeed renders a packed numerator<<16|denominator shutter
// value (e.g. 0x000A0001 => "10/1") or "bulb" when the denominator is zero.
func FormatShutterSpeed(v ptp.Value) string {
	num := uint32(v.U) >> 16
	den := uint32(v.U) & 0xFFFF
	if den == 0 {
		return "bulb"
	}
	return fmt.Sprintf("%d/%d", num, den)
}

// FormatISO renders an ISO value whose low 24 bits are the numeric ISO and
// whose top byte carries mode flags (0 = manual).
func FormatISO(v ptp.Value) string {
	iso := uint32(v.U) & 0x00FFFFFF
	mode := uint32(v.U) >> 24
	if mode == 0 {
		return fmt.Sprintf("ISO %d", iso)
	}
	return fmt.Sprintf("ISO %d (mode %#02x)", iso, mode)
}

// FormatExposureBias renders a signed milli-EV value (e.g. -333 => "-0.3EV").
func FormatExposureBias(v ptp.Value) string {
	return fmt.Sprintf("%+.1fEV", float64(v.I)/1000)
}

// FormatWhiteBalanceGMAB renders a packed {hi, lo int8} green/magenta or
// amber/blue bias in quarter-step units.
func FormatWhiteBalanceGMAB(v ptp.Value) string {
	hi := int8(uint16(v.U) >> 8)
	lo := int8(uint16(v.U))
	return fmt.Sprintf("%+.2f/%+.2f", float64(hi)*0.25, float64(lo)*0.25)
}

// FormatPendingFiles masks off the "more files pending" hint bit (bit 15)
// and renders the remaining file count (spec §4.4 "Pending files").
func FormatPendingFiles(v ptp.Value) string {
	return fmt.Sprintf("%d", uint16(v.U)&0x7FFF)
}

// PendingFilesCount returns the low-15-bit file count of a DPC_PENDING_FILES
// value (spec §4.4 "Pending files").
func PendingFilesCount(v ptp.Value) int {
	return int(uint16(v.U) & 0x7FFF)
}

type formatFunc func(ptp.Value) string

var propertyFormatters = map[ptp.PropCode]formatFunc{
	ptp.DPCFNumber:              FormatFNumber,
	ptp.DPCShutterSpeed:         FormatShutterSpeed,
	ptp.DPCISO:                  FormatISO,
	ptp.DPCExposureCompensation: FormatExposureBias,
	ptp.DPCFlashCompensation:    FormatExposureBias,
	ptp.DPCWhiteBalanceGM:       FormatWhiteBalanceGMAB,
	ptp.DPCWhiteBalanceAB:       FormatWhiteBalanceGMAB,
	ptp.DPCPendingFiles:         FormatPendingFiles,
}

// FormatPropertyValue renders v using code's registered formatter, or its
// plain Value.String() when none is registered.
func FormatPropertyValue(code ptp.PropCode, v ptp.Value) string {
	if f, ok := propertyFormatters[code]; ok {
		return f(v)
	}
	return v.String()
}
