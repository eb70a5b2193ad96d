// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package descriptor implements the SDIO_GetAllExtDevicePropInfo wire parser
// and the PropertyDescriptor/ControlDescriptor cache entries it produces
// (spec §3, §4.4 "SDIO_GetAllExtDevicePropInfo parser").
package descriptor

import (
	"fmt"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

// RangeForm is the min/max/step payload of a FormRange descriptor.
type RangeForm struct {
	Min, Max, Step ptp.Value
}

// PropertyDescriptor is a cached device property (spec §3).
type PropertyDescriptor struct {
	Code      ptp.PropCode
	DataType  ptp.DataType
	GetSet    ptp.GetSetMode
	IsEnabled bool
	Default   ptp.Value
	Current   ptp.Value
	Form      ptp.FormFlag
	Range     RangeForm

	// SetList and GetSetList are the two enum lists the wire format
	// carries for a property (spec §4.4); protocol 200 devices carry
	// only SetList and the parser synthesizes GetSetList as a copy.
	SetList    []ptp.Value
	GetSetList []ptp.Value

	// IsNotch marks a legacy property (spec §4.4: f-number,
	// exposure-compensation, flash-compensation, shutter-speed, ISO on
	// protocol_version < 300) adjustable only through the control path.
	IsNotch bool
}

// ControlDescriptor is a cached device control (spec §3). Controls are
// write-only relative commands; they carry a single enum/range, not a
// set/get-set pair.
type ControlDescriptor struct {
	Code      ptp.ControlCode
	DataType  ptp.DataType
	GetSet    ptp.GetSetMode
	IsEnabled bool
	Default   ptp.Value
	Current   ptp.Value
	Form      ptp.FormFlag
	Range     RangeForm
	Enum      []ptp.Value

	// Name is populated when this control was seeded from the static
	// metadata table (connect step 7) rather than carried on the wire.
	Name string
}

// EnumEntry annotates one enum value of a property with the readable/
// writable classification derived from its set vs. get/set membership
// (spec §4.4 "Derived display", testable property 7).
type EnumEntry struct {
	Value    ptp.Value
	Readable bool
	Writable bool
}

// Enums classifies p's enum values: present in both lists or only in the
// get/set list => readable+writable; present only in the set list =>
// readable-only (spec §4.4, §8 property 7).
func (p *PropertyDescriptor) Enums() []EnumEntry {
	out := make([]EnumEntry, 0, len(p.SetList)+len(p.GetSetList))
	seen := make(map[string]bool, len(p.SetList)+len(p.GetSetList))
	for _, v := range p.GetSetList {
		out = append(out, EnumEntry{Value: v, Readable: true, Writable: true})
		seen[v.String()] = true
	}
	for _, v := range p.SetList {
		if seen[v.String()] {
			continue
		}
		out = append(out, EnumEntry{Value: v, Readable: true, Writable: false})
		seen[v.String()] = true
	}
	return out
}

// ParseAllExtDevicePropInfo decodes the body of an SDIO_GetAllExtDevicePropInfo
// response: a u64 count of descriptors, then that many entries whose shape
// depends on protocolVersion and, for protocol 200, membership in
// supportedControls (spec §4.4).
func ParseAllExtDevicePropInfo(r *ptpio.Reader, protocolVersion ptp.ProtocolVersion, supportedControls map[ptp.ControlCode]bool) ([]*PropertyDescriptor, []*ControlDescriptor, error) {
	count, err := r.U64LE()
	if err != nil {
		return nil, nil, fmt.Errorf("descriptor: read descriptor count: %w", err)
	}

	var props []*PropertyDescriptor
	var controls []*ControlDescriptor
	for i := uint64(0); i < count; i++ {
		code, err := r.U16LE()
		if err != nil {
			return nil, nil, fmt.Errorf("descriptor: read code %d/%d: %w", i, count, err)
		}
		isControl := protocolVersion == ptp.ProtocolVersion200 && supportedControls[ptp.ControlCode(code)]
		if isControl {
			c, err := parseControlBody(r, ptp.ControlCode(code))
			if err != nil {
				return nil, nil, err
			}
			controls = append(controls, c)
			continue
		}
		p, err := parsePropertyBody(r, ptp.PropCode(code), protocolVersion)
		if err != nil {
			return nil, nil, err
		}
		p.IsNotch = protocolVersion < ptp.ProtocolVersion300 && ptp.NotchProperties[p.Code]
		props = append(props, p)
	}
	return props, controls, nil
}

func readCommonHead(r *ptpio.Reader) (dt ptp.DataType, getSet ptp.GetSetMode, enabled bool, err error) {
	t, err := r.U16LE()
	if err != nil {
		return 0, 0, false, err
	}
	gs, err := r.U8()
	if err != nil {
		return 0, 0, false, err
	}
	en, err := r.U8()
	if err != nil {
		return 0, 0, false, err
	}
	return ptp.DataType(t), ptp.GetSetMode(gs), en != 0, nil
}

func readRange(r *ptpio.Reader, dt ptp.DataType) (RangeForm, error) {
	min, err := ptp.ReadValue(r, dt)
	if err != nil {
		return RangeForm{}, err
	}
	max, err := ptp.ReadValue(r, dt)
	if err != nil {
		return RangeForm{}, err
	}
	step, err := ptp.ReadValue(r, dt)
	if err != nil {
		return RangeForm{}, err
	}
	return RangeForm{Min: min, Max: max, Step: step}, nil
}

func readEnumList(r *ptpio.Reader, dt ptp.DataType) ([]ptp.Value, error) {
	n, err := r.U16LE()
	if err != nil {
		return nil, err
	}
	out := make([]ptp.Value, n)
	for i := range out {
		v, err := ptp.ReadValue(r, dt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parsePropertyBody(r *ptpio.Reader, code ptp.PropCode, protocolVersion ptp.ProtocolVersion) (*PropertyDescriptor, error) {
	dt, getSet, enabled, err := readCommonHead(r)
	if err != nil {
		return nil, fmt.Errorf("descriptor: property %#04x head: %w", uint16(code), err)
	}
	def, err := ptp.ReadValue(r, dt)
	if err != nil {
		return nil, fmt.Errorf("descriptor: property %#04x default: %w", uint16(code), err)
	}
	cur, err := ptp.ReadValue(r, dt)
	if err != nil {
		return nil, fmt.Errorf("descriptor: property %#04x current: %w", uint16(code), err)
	}
	formByte, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("descriptor: property %#04x form: %w", uint16(code), err)
	}

	p := &PropertyDescriptor{
		Code:      code,
		DataType:  dt,
		GetSet:    getSet,
		IsEnabled: enabled,
		Default:   def,
		Current:   cur,
		Form:      ptp.FormFlag(formByte),
	}
	switch p.Form {
	case ptp.FormEnum:
		set, err := readEnumList(r, dt)
		if err != nil {
			return nil, fmt.Errorf("descriptor: property %#04x set list: %w", uint16(code), err)
		}
		p.SetList = set
		if protocolVersion == ptp.ProtocolVersion200 {
			p.GetSetList = append([]ptp.Value(nil), set...)
		} else {
			getSetList, err := readEnumList(r, dt)
			if err != nil {
				return nil, fmt.Errorf("descriptor: property %#04x get/set list: %w", uint16(code), err)
			}
			p.GetSetList = getSetList
		}
	case ptp.FormRange:
		rng, err := readRange(r, dt)
		if err != nil {
			return nil, fmt.Errorf("descriptor: property %#04x range: %w", uint16(code), err)
		}
		p.Range = rng
	}
	return p, nil
}

func parseControlBody(r *ptpio.Reader, code ptp.ControlCode) (*ControlDescriptor, error) {
	dt, getSet, enabled, err := readCommonHead(r)
	if err != nil {
		return nil, fmt.Errorf("descriptor: control %#04x head: %w", uint16(code), err)
	}
	def, err := ptp.ReadValue(r, dt)
	if err != nil {
		return nil, fmt.Errorf("descriptor: control %#04x default: %w", uint16(code), err)
	}
	cur, err := ptp.ReadValue(r, dt)
	if err != nil {
		return nil, fmt.Errorf("descriptor: control %#04x current: %w", uint16(code), err)
	}
	formByte, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("descriptor: control %#04x form: %w", uint16(code), err)
	}

	c := &ControlDescriptor{
		Code:      code,
		DataType:  dt,
		GetSet:    getSet,
		IsEnabled: enabled,
		Default:   def,
		Current:   cur,
		Form:      ptp.FormFlag(formByte),
	}
	switch c.Form {
	case ptp.FormEnum:
		enum, err := readEnumList(r, dt)
		if err != nil {
			return nil, fmt.Errorf("descriptor: control %#04x enum: %w", uint16(code), err)
		}
		c.Enum = enum
	case ptp.FormRange:
		rng, err := readRange(r, dt)
		if err != nil {
			return nil, fmt.Errorf("descriptor: control %#04x range: %w", uint16(code), err)
		}
		c.Range = rng
	}
	return c, nil
}
