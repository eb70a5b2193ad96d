// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package descriptor

import (
	"testing"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

// writeCommonHead writes the {dataType, getSet, enabled} head shared by
// both property and control descriptor bodies.
func writeCommonHead(w *ptpio.Writer, dt ptp.DataType, getSet ptp.GetSetMode, enabled bool) {
	w.U16LE(uint16(dt))
	w.U8(uint8(getSet))
	if enabled {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func writeEnumList(w *ptpio.Writer, vals []uint16) {
	w.U16LE(uint16(len(vals)))
	for _, v := range vals {
		w.U16LE(v)
	}
}

// buildEnumProperty encodes one SDIO_GetAllExtDevicePropInfo property entry
// in enum form, writing a second get/set list only when protocolVersion is
// not 200 (spec §4.4 parser).
func buildEnumProperty(w *ptpio.Writer, code ptp.PropCode, def, cur uint16, setList, getSetList []uint16, protocolVersion ptp.ProtocolVersion) {
	w.U16LE(uint16(code))
	writeCommonHead(w, ptp.DTUint16, ptp.GetAndSet, true)
	w.U16LE(def)
	w.U16LE(cur)
	w.U8(uint8(ptp.FormEnum))
	writeEnumList(w, setList)
	if protocolVersion != ptp.ProtocolVersion200 {
		writeEnumList(w, getSetList)
	}
}

func buildRangeControl(w *ptpio.Writer, code ptp.ControlCode, def, cur int8) {
	w.U16LE(uint16(code))
	writeCommonHead(w, ptp.DTInt8, ptp.GetAndSet, true)
	w.I8(def)
	w.I8(cur)
	w.U8(uint8(ptp.FormRange))
	w.I8(-8)
	w.I8(8)
	w.I8(1)
}

func TestParseAllExtDevicePropInfoProtocol300TwoEnumLists(t *testing.T) {
	w := ptpio.NewWriter()
	w.U64LE(1)
	buildEnumProperty(w, ptp.DPCWhiteBalance, 2, 2, []uint16{1, 2, 3}, []uint16{2, 3}, ptp.ProtocolVersion300)

	r := ptpio.NewReader(w.Bytes())
	props, controls, err := ParseAllExtDevicePropInfo(r, ptp.ProtocolVersion300, nil)
	if err != nil {
		t.Fatalf("ParseAllExtDevicePropInfo() error = %v", err)
	}
	if len(controls) != 0 {
		t.Fatalf("got %d controls; want 0", len(controls))
	}
	if len(props) != 1 {
		t.Fatalf("got %d props; want 1", len(props))
	}
	p := props[0]
	if p.Code != ptp.DPCWhiteBalance {
		t.Fatalf("Code = %#04x; want %#04x", uint16(p.Code), uint16(ptp.DPCWhiteBalance))
	}
	if len(p.SetList) != 3 || len(p.GetSetList) != 2 {
		t.Fatalf("SetList/GetSetList lengths = %d/%d; want 3/2", len(p.SetList), len(p.GetSetList))
	}

	entries := p.Enums()
	readable, writable := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		readable[e.Value.String()] = e.Readable
		writable[e.Value.String()] = e.Writable
	}
	if !writable["2"] || !writable["3"] {
		t.Fatal("values present in both set and get/set lists must be writable")
	}
	if writable["1"] {
		t.Fatal("a value present only in the set list must not be classified writable")
	}
	if !readable["1"] || !readable["2"] || !readable["3"] {
		t.Fatal("every enum value must be classified readable")
	}
}

func TestParseAllExtDevicePropInfoProtocol200SingleListCopied(t *testing.T) {
	w := ptpio.NewWriter()
	w.U64LE(1)
	buildEnumProperty(w, ptp.DPCWhiteBalance, 1, 1, []uint16{1, 2}, nil, ptp.ProtocolVersion200)

	r := ptpio.NewReader(w.Bytes())
	props, _, err := ParseAllExtDevicePropInfo(r, ptp.ProtocolVersion200, nil)
	if err != nil {
		t.Fatalf("ParseAllExtDevicePropInfo() error = %v", err)
	}
	p := props[0]
	if len(p.GetSetList) != len(p.SetList) {
		t.Fatalf("protocol 200 must synthesize GetSetList as a copy of SetList: got %d vs %d", len(p.GetSetList), len(p.SetList))
	}
	for i := range p.SetList {
		if !p.SetList[i].Equal(p.GetSetList[i]) {
			t.Fatalf("GetSetList[%d] = %v; want copy of SetList[%d] = %v", i, p.GetSetList[i], i, p.SetList[i])
		}
	}
}

func TestParseAllExtDevicePropInfoProtocol200InlineControl(t *testing.T) {
	supported := map[ptp.ControlCode]bool{ptp.ControlCode(ptp.DPCFNumber): true}
	w := ptpio.NewWriter()
	w.U64LE(1)
	buildRangeControl(w, ptp.ControlCode(ptp.DPCFNumber), 0, 0)

	r := ptpio.NewReader(w.Bytes())
	props, controls, err := ParseAllExtDevicePropInfo(r, ptp.ProtocolVersion200, supported)
	if err != nil {
		t.Fatalf("ParseAllExtDevicePropInfo() error = %v", err)
	}
	if len(props) != 0 {
		t.Fatalf("got %d props; want 0 (entry should classify as a control)", len(props))
	}
	if len(controls) != 1 {
		t.Fatalf("got %d controls; want 1", len(controls))
	}
	if controls[0].Form != ptp.FormRange {
		t.Fatalf("control Form = %v; want FormRange", controls[0].Form)
	}
	if controls[0].Range.Max.I != 8 {
		t.Fatalf("control Range.Max = %v; want 8", controls[0].Range.Max)
	}
}

func TestParseAllExtDevicePropInfoFlagsNotchOnlyBelow300(t *testing.T) {
	build := func(pv ptp.ProtocolVersion) *PropertyDescriptor {
		w := ptpio.NewWriter()
		w.U64LE(1)
		buildEnumProperty(w, ptp.DPCFNumber, 1, 1, []uint16{1}, []uint16{1}, pv)
		r := ptpio.NewReader(w.Bytes())
		props, _, err := ParseAllExtDevicePropInfo(r, pv, nil)
		if err != nil {
			t.Fatalf("ParseAllExtDevicePropInfo(%v) error = %v", pv, err)
		}
		return props[0]
	}

	if p := build(ptp.ProtocolVersion200); !p.IsNotch {
		t.Fatal("DPC_F_NUMBER on protocol 200 must be flagged IsNotch")
	}
	if p := build(ptp.ProtocolVersion300); p.IsNotch {
		t.Fatal("DPC_F_NUMBER on protocol 300 must not be flagged IsNotch")
	}
}
