// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpip

import (
	"bytes"
	"testing"
)

func TestEncodeDecodePacketHeader(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	pkt := EncodePacket(PktCommandRequest, payload)

	length, typ, err := DecodePacketHeader(pkt)
	if err != nil {
		t.Fatalf("DecodePacketHeader: %v", err)
	}
	if typ != PktCommandRequest {
		t.Fatalf("type = %v, want %v", typ, PktCommandRequest)
	}
	if int(length) != PacketHeaderSize+len(payload) {
		t.Fatalf("length = %d, want %d", length, PacketHeaderSize+len(payload))
	}
	if !bytes.Equal(pkt[PacketHeaderSize:], payload) {
		t.Fatalf("payload mismatch: got %v want %v", pkt[PacketHeaderSize:], payload)
	}
}

func TestInitCommandAckRoundTrip(t *testing.T) {
	var guid [16]byte
	for i := range guid {
		guid[i] = byte(i)
	}
	// The ack payload shares the request's wire shape except for the
	// leading 4-byte connection id, so build it by hand.
	reqLike := EncodeInitCommandRequest(guid, "ILCE-7M4", 0x00010000)
	payload := append([]byte{0x2a, 0, 0, 0}, reqLike...)

	ack, err := DecodeInitCommandAck(payload)
	if err != nil {
		t.Fatalf("DecodeInitCommandAck: %v", err)
	}
	if ack.ConnectionID != 0x2a {
		t.Errorf("ConnectionID = %d, want 42", ack.ConnectionID)
	}
	if ack.GUID != guid {
		t.Errorf("GUID = %v, want %v", ack.GUID, guid)
	}
	if ack.FriendlyName != "ILCE-7M4" {
		t.Errorf("FriendlyName = %q, want %q", ack.FriendlyName, "ILCE-7M4")
	}
	if ack.ProtocolVersion != 0x00010000 {
		t.Errorf("ProtocolVersion = %#x, want %#x", ack.ProtocolVersion, 0x00010000)
	}
}

func TestCommandRequestResponseRoundTrip(t *testing.T) {
	params := []uint32{0x1000, 0x2000, 0x3000}
	req := EncodeCommandRequest(false, 0x9209, 7, params)

	// First 4 bytes are the data-phase flag, next 2 the op code, next 4
	// the transaction id, then the params.
	if req[0] != 0 || req[1] != 0 || req[2] != 0 || req[3] != 0 {
		t.Fatalf("data-phase flag not zero: %v", req[:4])
	}

	resp := &CommandResponsePacket{ResponseCode: 0x2001, Params: []uint32{0xAA}}
	encoded := EncodePacket(PktCommandResponse, encodeCommandResponseForTest(resp))
	_, payload, err := func() (PacketType, []byte, error) {
		length, typ, err := DecodePacketHeader(encoded)
		if err != nil {
			return 0, nil, err
		}
		return typ, encoded[PacketHeaderSize:length], nil
	}()
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	got, err := DecodeCommandResponse(payload)
	if err != nil {
		t.Fatalf("DecodeCommandResponse: %v", err)
	}
	if got.ResponseCode != resp.ResponseCode {
		t.Errorf("ResponseCode = %#x, want %#x", got.ResponseCode, resp.ResponseCode)
	}
	if len(got.Params) != 1 || got.Params[0] != 0xAA {
		t.Errorf("Params = %v, want [0xAA]", got.Params)
	}
}

// encodeCommandResponseForTest mirrors the device-side wire encoding of a
// Command Response packet, which this package otherwise only ever decodes.
func encodeCommandResponseForTest(r *CommandResponsePacket) []byte {
	buf := make([]byte, 0, 2+4*len(r.Params))
	buf = append(buf, byte(r.ResponseCode), byte(r.ResponseCode>>8))
	for _, p := range r.Params {
		buf = append(buf, byte(p), byte(p>>8), byte(p>>16), byte(p>>24))
	}
	return buf
}

func TestDataPhasePacketRoundTrip(t *testing.T) {
	chunk := []byte("hello world")
	enc := EncodeDataPacket(99, chunk)
	tid, rest, err := DecodeDataPhasePacket(enc)
	if err != nil {
		t.Fatalf("DecodeDataPhasePacket: %v", err)
	}
	if tid != 99 {
		t.Errorf("tid = %d, want 99", tid)
	}
	if !bytes.Equal(rest, chunk) {
		t.Errorf("rest = %q, want %q", rest, chunk)
	}
}

func TestDecodePacketHeaderShort(t *testing.T) {
	if _, _, err := DecodePacketHeader([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short buffer")
	}
}
