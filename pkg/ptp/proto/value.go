// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proto

import (
	"fmt"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

// Value is a tagged union over the PTP primitive data types: the signed and
// unsigned integer widths, their array variants, and a UTF-8 string. Every
// PropertyDescriptor and ControlDescriptor value carries its declared
// DataType alongside the decoded Go value.
type Value struct {
	Type DataType
	I    int64    // signed scalar
	U    uint64   // unsigned scalar
	S    string   // DTStr
	AU   []uint64 // unsigned array variants
	AI   []int64  // signed array variants
}

func U8(v uint8) Value   { return Value{Type: DTUint8, U: uint64(v)} }
func U16(v uint16) Value { return Value{Type: DTUint16, U: uint64(v)} }
func U32(v uint32) Value { return Value{Type: DTUint32, U: uint64(v)} }
func U64(v uint64) Value { return Value{Type: DTUint64, U: v} }
func I8(v int8) Value    { return Value{Type: DTInt8, I: int64(v)} }
func I16(v int16) Value  { return Value{Type: DTInt16, I: int64(v)} }
func I32(v int32) Value  { return Value{Type: DTInt32, I: int64(v)} }
func I64(v int64) Value  { return Value{Type: DTInt64, I: v} }
func Str(v string) Value { return Value{Type: DTStr, S: v} }

// Equal reports whether two values have the same type and content.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case DTStr:
		return v.S == o.S
	case DTInt8, DTInt16, DTInt32, DTInt64:
		return v.I == o.I
	default:
		return v.U == o.U
	}
}

// Size returns the on-wire byte size of a scalar value, or -1 for strings
// and arrays (whose size is data-dependent).
func (v Value) Size() int {
	switch v.Type {
	case DTInt8, DTUint8:
		return 1
	case DTInt16, DTUint16:
		return 2
	case DTInt32, DTUint32:
		return 4
	case DTInt64, DTUint64:
		return 8
	default:
		return -1
	}
}

func (v Value) String() string {
	switch v.Type {
	case DTStr:
		return v.S
	case DTInt8, DTInt16, DTInt32, DTInt64:
		return fmt.Sprintf("%d", v.I)
	default:
		return fmt.Sprintf("%d", v.U)
	}
}

// ReadValue decodes one Value of the given DataType from r, little-endian.
func ReadValue(r *ptpio.Reader, t DataType) (Value, error) {
	switch t {
	case DTInt8:
		v, err := r.I8()
		return Value{Type: t, I: int64(v)}, err
	case DTUint8:
		v, err := r.U8()
		return Value{Type: t, U: uint64(v)}, err
	case DTInt16:
		v, err := r.I16LE()
		return Value{Type: t, I: int64(v)}, err
	case DTUint16:
		v, err := r.U16LE()
		return Value{Type: t, U: uint64(v)}, err
	case DTInt32:
		v, err := r.I32LE()
		return Value{Type: t, I: int64(v)}, err
	case DTUint32:
		v, err := r.U32LE()
		return Value{Type: t, U: uint64(v)}, err
	case DTInt64:
		v, err := r.I64LE()
		return Value{Type: t, I: v}, err
	case DTUint64:
		v, err := r.U64LE()
		return Value{Type: t, U: v}, err
	case DTStr:
		s, err := r.PTPString()
		return Value{Type: t, S: s}, err
	default:
		return Value{}, fmt.Errorf("ptp: unsupported value data type %#04x", uint16(t))
	}
}

// WriteValue encodes v to w using its declared DataType, little-endian.
// String values are prefixed with the wire string length convention
// (ptpio.Writer.PTPString).
func WriteValue(w *ptpio.Writer, v Value) error {
	switch v.Type {
	case DTInt8:
		w.I8(int8(v.I))
	case DTUint8:
		w.U8(uint8(v.U))
	case DTInt16:
		w.U16LE(uint16(int16(v.I)))
	case DTUint16:
		w.U16LE(uint16(v.U))
	case DTInt32:
		w.U32LE(uint32(int32(v.I)))
	case DTUint32:
		w.U32LE(uint32(v.U))
	case DTInt64:
		w.U64LE(uint64(v.I))
	case DTUint64:
		w.U64LE(v.U)
	case DTStr:
		w.PTPString(v.S)
	default:
		return fmt.Errorf("ptp: unsupported value data type %#04x", uint16(v.Type))
	}
	return nil
}
