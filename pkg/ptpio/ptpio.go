// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptpio implements the byte-level read/write cursors PTP framing
// codecs are built on: bounded, endian-aware primitive access and the
// length-prefixed UTF-16LE string encoding used throughout the PTP and SDIO
// wire formats.
package ptpio

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

// ErrShortBuffer is returned when a read requests more bytes than remain.
// The cursor does not advance on failure.
var ErrShortBuffer = errors.New("ptpio: short buffer")

// Reader is a forward-only cursor over a borrowed byte slice.
type Reader struct {
	b   []byte
	off int
}

// NewReader wraps b for sequential reads. b is not copied.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.b) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrShortBuffer
	}
	s := r.b[r.off : r.off+n]
	r.off += n
	return s, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) U16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) I16LE() (int16, error) {
	v, err := r.U16LE()
	return int16(v), err
}

func (r *Reader) U32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U32BE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) I32LE() (int32, error) {
	v, err := r.U32LE()
	return int32(v), err
}

func (r *Reader) U64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I64LE() (int64, error) {
	v, err := r.U64LE()
	return int64(v), err
}

// PTPString decodes a PTP wire string: a one-byte count of UTF-16 code
// units followed by that many little-endian UTF-16 code units. The count
// may or may not include a NUL terminator; a counted trailing NUL is
// dropped. A zero count decodes to "".
func (r *Reader) PTPString() (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	units := make([]uint16, n)
	for i := range units {
		u, err := r.U16LE()
		if err != nil {
			return "", err
		}
		units[i] = u
	}
	// Drop a trailing NUL code unit if present; some devices count it,
	// others don't (spec.md §9 Open Questions).
	if units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units)), nil
}

// Writer is an append-only byte builder used to serialize PTP frames.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

// Grow appends n zero bytes and returns a slice over the new region, so
// callers can fill a reserved area (e.g. a framing header) in place.
func (w *Writer) Grow(n int) []byte {
	off := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return w.buf[off : off+n]
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) I8(v int8) {
	w.U8(uint8(v))
}

func (w *Writer) U16LE(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U64LE(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PTPString encodes s as a PTP wire string: a one-byte UTF-16 code unit
// count including a NUL terminator, followed by the little-endian code
// units and the terminator itself. This matches the convention observed in
// the PTP-IP Init Command Request friendly name field (§6).
func (w *Writer) PTPString(s string) {
	units := utf16.Encode([]rune(s))
	units = append(units, 0)
	w.U8(uint8(len(units)))
	for _, u := range units {
		w.U16LE(u)
	}
}
