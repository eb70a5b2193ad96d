// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpip

import (
	"bytes"
	"io"
	"testing"
)

// dribbleReader returns at most chunkSize bytes per Read, forcing callers
// to loop — this is what a real TCP socket looks like under partial reads.
type dribbleReader struct {
	buf       *bytes.Buffer
	chunkSize int
}

func (d *dribbleReader) Read(p []byte) (int, error) {
	if d.buf.Len() == 0 {
		return 0, io.EOF
	}
	n := d.chunkSize
	if n > len(p) {
		n = len(p)
	}
	return d.buf.Read(p[:n])
}

func TestPacketReaderAcrossPartialReads(t *testing.T) {
	pkt1 := EncodePacket(PktCommandRequest, []byte{1, 2, 3, 4})
	pkt2 := EncodePacket(PktCommandResponse, []byte{5, 6})

	var all bytes.Buffer
	all.Write(pkt1)
	all.Write(pkt2)

	r := &dribbleReader{buf: &all, chunkSize: 3}
	pr := NewPacketReader(r)

	typ, payload, err := pr.ReadPacket()
	if err != nil {
		t.Fatalf("first ReadPacket: %v", err)
	}
	if typ != PktCommandRequest {
		t.Fatalf("type = %v, want PktCommandRequest", typ)
	}
	if !bytes.Equal(payload, []byte{1, 2, 3, 4}) {
		t.Fatalf("payload = %v, want [1 2 3 4]", payload)
	}

	typ, payload, err = pr.ReadPacket()
	if err != nil {
		t.Fatalf("second ReadPacket: %v", err)
	}
	if typ != PktCommandResponse {
		t.Fatalf("type = %v, want PktCommandResponse", typ)
	}
	if !bytes.Equal(payload, []byte{5, 6}) {
		t.Fatalf("payload = %v, want [5 6]", payload)
	}
}

func TestPacketReaderResidueCarriesOver(t *testing.T) {
	pkt1 := EncodePacket(PktEvent, []byte{0xAA})
	pkt2 := EncodePacket(PktEvent, []byte{0xBB, 0xCC})

	var all bytes.Buffer
	all.Write(pkt1)
	all.Write(pkt2)

	// One giant Read returns both packets plus residue at once; the second
	// ReadPacket call must consume the leftover without another Read.
	r := &dribbleReader{buf: &all, chunkSize: all.Len()}
	pr := NewPacketReader(r)

	_, p1, err := pr.ReadPacket()
	if err != nil {
		t.Fatalf("first ReadPacket: %v", err)
	}
	if !bytes.Equal(p1, []byte{0xAA}) {
		t.Fatalf("first payload = %v, want [0xAA]", p1)
	}
	if len(pr.buf) == 0 {
		t.Fatal("expected residue to remain buffered after first packet")
	}

	_, p2, err := pr.ReadPacket()
	if err != nil {
		t.Fatalf("second ReadPacket: %v", err)
	}
	if !bytes.Equal(p2, []byte{0xBB, 0xCC}) {
		t.Fatalf("second payload = %v, want [0xBB 0xCC]", p2)
	}
}
