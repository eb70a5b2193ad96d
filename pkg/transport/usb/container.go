// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package usb implements the PTP USB container-header framing (spec §4.2)
// over bulk pipes exposed by a Still-Image (class 6, subclass 1, protocol 1)
// USB interface.
package usb

import (
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport"
)

// ContainerType is the USB container header's type field.
type ContainerType uint16

const (
	ContainerCommand  ContainerType = 1
	ContainerData     ContainerType = 2
	ContainerResponse ContainerType = 3
	ContainerEvent    ContainerType = 4
)

// HeaderSize is the fixed 12-byte USB container header: length (u32),
// type (u16), code (u16), transaction id (u32).
const HeaderSize = 12

// ContainerHeader is the 12-byte framing prefix every USB PTP packet
// carries (spec §3, §6).
type ContainerHeader struct {
	Length        uint32
	Type          ContainerType
	Code          uint16
	TransactionID uint32
}

// EncodeCommand serializes a command container: header followed by up to
// five little-endian 32-bit parameters.
func EncodeCommand(code uint16, tid uint32, params []uint32) []byte {
	w := ptpio.NewWriter()
	w.Grow(HeaderSize)
	for _, p := range params {
		w.U32LE(p)
	}
	buf := w.Bytes()
	putHeader(buf, uint32(len(buf)), ContainerCommand, code, tid)
	return buf
}

// EncodeData serializes a data container carrying payload, reusing the
// buffer-prefix convention: payload is expected to start at offset
// HeaderSize within buf (i.e. buf was obtained via AllocBuffer).
func EncodeData(buf []byte, code uint16, tid uint32) {
	putHeader(buf, uint32(len(buf)), ContainerData, code, tid)
}

func putHeader(buf []byte, length uint32, typ ContainerType, code uint16, tid uint32) {
	w := ptpio.NewWriter()
	w.U32LE(length)
	w.U16LE(uint16(typ))
	w.U16LE(code)
	w.U32LE(tid)
	copy(buf[:HeaderSize], w.Bytes())
}

// DecodeHeader parses the 12-byte container header prefix of buf.
func DecodeHeader(buf []byte) (ContainerHeader, error) {
	if len(buf) < HeaderSize {
		return ContainerHeader{}, transport.ErrMalformedResponse
	}
	r := ptpio.NewReader(buf[:HeaderSize])
	length, _ := r.U32LE()
	typ, _ := r.U16LE()
	code, _ := r.U16LE()
	tid, _ := r.U32LE()
	return ContainerHeader{
		Length:        length,
		Type:          ContainerType(typ),
		Code:          code,
		TransactionID: tid,
	}, nil
}

// DecodeResponseParams reads up to 5 little-endian u32 parameters from the
// bytes following a response container header, inferred from the header's
// declared length (spec §4.2 "Parse the response frame").
func DecodeResponseParams(buf []byte, hdr ContainerHeader) []uint32 {
	n := (int(hdr.Length) - HeaderSize) / 4
	if n > 5 {
		n = 5
	}
	if n <= 0 {
		return nil
	}
	r := ptpio.NewReader(buf[HeaderSize:])
	params := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		p, err := r.U32LE()
		if err != nil {
			break
		}
		params = append(params, p)
	}
	return params
}
