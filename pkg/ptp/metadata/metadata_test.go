// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import (
	"testing"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
)

func TestFormatFNumber(t *testing.T) {
	if got := FormatFNumber(ptp.U16(800)); got != "f/8.0" {
		t.Fatalf("FormatFNumber(800) = %q; want f/8.0", got)
	}
}

func TestFormatShutterSpeedFraction(t *testing.T) {
	v := ptp.U32(10<<16 | 1)
	if got := FormatShutterSpeed(v); got != "10/1" {
		t.Fatalf("FormatShutterSpeed() = %q; want 10/1", got)
	}
}

func TestFormatShutterSpeedBulb(t *testing.T) {
	v := ptp.U32(1 << 16)
	if got := FormatShutterSpeed(v); got != "bulb" {
		t.Fatalf("FormatShutterSpeed(denominator=0) = %q; want bulb", got)
	}
}

func TestFormatISOManualMode(t *testing.T) {
	if got := FormatISO(ptp.U32(400)); got != "ISO 400" {
		t.Fatalf("FormatISO(400) = %q; want ISO 400", got)
	}
}

func TestFormatISOWithModeFlag(t *testing.T) {
	v := ptp.U32(1<<24 | 100)
	if got := FormatISO(v); got != "ISO 100 (mode 0x01)" {
		t.Fatalf("FormatISO(mode flag) = %q; want ISO 100 (mode 0x01)", got)
	}
}

func TestFormatPendingFilesMasksHintBit(t *testing.T) {
	v := ptp.U16(1<<15 | 3)
	if got := FormatPendingFiles(v); got != "3" {
		t.Fatalf("FormatPendingFiles() = %q; want 3", got)
	}
	if n := PendingFilesCount(v); n != 3 {
		t.Fatalf("PendingFilesCount() = %d; want 3", n)
	}
}

func TestFormatPropertyValueDispatchesToRegisteredFormatter(t *testing.T) {
	got := FormatPropertyValue(ptp.DPCFNumber, ptp.U16(280))
	if got != "f/2.8" {
		t.Fatalf("FormatPropertyValue(DPC_F_NUMBER) = %q; want f/2.8", got)
	}
}

func TestFormatPropertyValueFallsBackToValueString(t *testing.T) {
	got := FormatPropertyValue(ptp.DPCWhiteBalance, ptp.U16(2))
	if got != "2" {
		t.Fatalf("FormatPropertyValue(unregistered code) = %q; want plain Value.String()", got)
	}
}

func TestPropertyNameKnownAndUnknown(t *testing.T) {
	if got := PropertyName(ptp.DPCISO); got != "ISO" {
		t.Fatalf("PropertyName(DPC_ISO) = %q; want ISO", got)
	}
	if got := PropertyName(ptp.PropCode(0x9999)); got == "" {
		t.Fatal("PropertyName(unknown) must not be empty")
	}
}

func TestSupportsControlAndLookup(t *testing.T) {
	code := ptp.ControlCode(ptp.DPCShutterSpeed)
	if !SupportsControl(code) {
		t.Fatal("SupportsControl(DPC_SHUTTER_SPEED) should be true: it's a notch control")
	}
	name, dt, form, _, rng, ok := Lookup(code)
	if !ok {
		t.Fatal("Lookup(DPC_SHUTTER_SPEED) should resolve")
	}
	if name != "ShutterSpeed" {
		t.Fatalf("Lookup name = %q; want ShutterSpeed", name)
	}
	if dt != ptp.DTInt8 || form != ptp.FormRange {
		t.Fatalf("Lookup dataType/form = %v/%v; want DTInt8/FormRange", dt, form)
	}
	if rng.Min.I != -8 || rng.Max.I != 8 {
		t.Fatalf("Lookup range = %+v; want min -8 max 8", rng)
	}
}

func TestLookupUnknownCode(t *testing.T) {
	_, _, _, _, _, ok := Lookup(ptp.ControlCode(0x9999))
	if ok {
		t.Fatal("Lookup(unknown control code) should report ok=false")
	}
}
