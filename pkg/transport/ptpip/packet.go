// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptpip implements the PTP-over-IP transport: packet framing over
// two TCP sockets (data + event), the Init handshake, and SSDP-based
// discovery with HTTP/XML metadata fetch (spec §4.2, §4.3, §6).
package ptpip

import (
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport"
)

// PacketType is the PTP-IP packet header's type field (spec §4.2).
type PacketType uint32

const (
	PktInitCommandRequest PacketType = 0x01
	PktInitCommandAck     PacketType = 0x02
	PktInitEventRequest   PacketType = 0x03
	PktInitEventAck       PacketType = 0x04
	PktInitFail           PacketType = 0x05
	PktCommandRequest     PacketType = 0x06
	PktCommandResponse    PacketType = 0x07
	PktEvent              PacketType = 0x08
	PktStartData          PacketType = 0x09
	PktData               PacketType = 0x0A
	PktCancelData         PacketType = 0x0B
	PktEndData            PacketType = 0x0C
	PktProbeRequest       PacketType = 0x0D
	PktProbeResponse      PacketType = 0x0E
)

// DataPort is the PTP-IP data socket's well-known port (spec §6).
const DataPort = 15740

// PacketHeaderSize is the 8-byte length+type prefix on every packet.
const PacketHeaderSize = 8

// EncodePacket serializes a length-prefixed PTP-IP packet: 4-byte total
// length (including the header), 4-byte type, then payload.
func EncodePacket(typ PacketType, payload []byte) []byte {
	w := ptpio.NewWriter()
	w.U32LE(uint32(PacketHeaderSize + len(payload)))
	w.U32LE(uint32(typ))
	w.WriteBytes(payload)
	return w.Bytes()
}

// DecodePacketHeader reads the length and type from the front of buf.
func DecodePacketHeader(buf []byte) (length uint32, typ PacketType, err error) {
	if len(buf) < PacketHeaderSize {
		return 0, 0, transport.ErrMalformedResponse
	}
	r := ptpio.NewReader(buf[:PacketHeaderSize])
	l, _ := r.U32LE()
	t, _ := r.U32LE()
	return l, PacketType(t), nil
}

// EncodeInitCommandRequest builds the Init Command Request payload: a
// 16-byte GUID, a NUL-terminated UTF-16LE friendly name, and a 32-bit
// protocol version (spec §6).
func EncodeInitCommandRequest(guid [16]byte, friendlyName string, protocolVersion uint32) []byte {
	w := ptpio.NewWriter()
	w.WriteBytes(guid[:])
	w.PTPString(friendlyName)
	w.U32LE(protocolVersion)
	return w.Bytes()
}

// DecodeInitCommandAck parses the Init Command Ack payload: connection id
// (session id for the Init Event Request that follows) and the responding
// device's GUID/friendly name/protocol version.
type InitCommandAck struct {
	ConnectionID    uint32
	GUID            [16]byte
	FriendlyName    string
	ProtocolVersion uint32
}

func DecodeInitCommandAck(payload []byte) (*InitCommandAck, error) {
	r := ptpio.NewReader(payload)
	connID, err := r.U32LE()
	if err != nil {
		return nil, err
	}
	guidBytes, err := r.Bytes(16)
	if err != nil {
		return nil, err
	}
	name, err := r.PTPString()
	if err != nil {
		return nil, err
	}
	ver, err := r.U32LE()
	if err != nil {
		return nil, err
	}
	var guid [16]byte
	copy(guid[:], guidBytes)
	return &InitCommandAck{ConnectionID: connID, GUID: guid, FriendlyName: name, ProtocolVersion: ver}, nil
}

// EncodeInitEventRequest carries the connection id learned from the Init
// Command Ack.
func EncodeInitEventRequest(connectionID uint32) []byte {
	w := ptpio.NewWriter()
	w.U32LE(connectionID)
	return w.Bytes()
}

// EncodeCommandRequest builds a Command Request packet payload: data-phase
// flag, op code, transaction id, then up to 5 little-endian parameters
// (spec §4.2).
func EncodeCommandRequest(dataPhase bool, opCode uint16, tid uint32, params []uint32) []byte {
	w := ptpio.NewWriter()
	if dataPhase {
		w.U32LE(1)
	} else {
		w.U32LE(0)
	}
	w.U16LE(opCode)
	w.U32LE(tid)
	for _, p := range params {
		w.U32LE(p)
	}
	return w.Bytes()
}

// DecodeCommandResponse parses a Command Response packet payload.
type CommandResponsePacket struct {
	ResponseCode uint16
	Params       []uint32
}

func DecodeCommandResponse(payload []byte) (*CommandResponsePacket, error) {
	r := ptpio.NewReader(payload)
	code, err := r.U16LE()
	if err != nil {
		return nil, err
	}
	var params []uint32
	for r.Remaining() >= 4 {
		p, err := r.U32LE()
		if err != nil {
			break
		}
		params = append(params, p)
	}
	return &CommandResponsePacket{ResponseCode: code, Params: params}, nil
}

// EncodeStartData builds a Start-Data packet payload: transaction id and
// the total data-phase length as a 64-bit value.
func EncodeStartData(tid uint32, totalLength uint64) []byte {
	w := ptpio.NewWriter()
	w.U32LE(tid)
	w.U64LE(totalLength)
	return w.Bytes()
}

// EncodeDataPacket builds a Data packet payload: transaction id then the
// chunk bytes.
func EncodeDataPacket(tid uint32, chunk []byte) []byte {
	w := ptpio.NewWriter()
	w.U32LE(tid)
	w.WriteBytes(chunk)
	return w.Bytes()
}

// EncodeEndData builds an End-Data packet payload, identical shape to a
// Data packet (transaction id + final chunk, possibly empty).
func EncodeEndData(tid uint32, chunk []byte) []byte {
	return EncodeDataPacket(tid, chunk)
}

// DecodeDataPhasePacket strips the 4-byte transaction id prefix shared by
// Start-Data/Data/End-Data and returns the remaining payload bytes. For
// Start-Data the "payload" is the 8-byte total length.
func DecodeDataPhasePacket(payload []byte) (tid uint32, rest []byte, err error) {
	r := ptpio.NewReader(payload)
	tid, err = r.U32LE()
	if err != nil {
		return 0, nil, err
	}
	rest, _ = r.Bytes(r.Remaining())
	return tid, rest, nil
}
