// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpip

import "io"

// PacketReader accumulates bytes from a stream socket and slices out
// whole PTP-IP packets, shifting any residue beyond one packet's declared
// length to the front of its scratch buffer for the next call (spec §4.2
// "partial packet carryover", §8 invariants 5 and 6).
type PacketReader struct {
	r   io.Reader
	buf []byte
}

func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{r: r}
}

func (pr *PacketReader) fill(min int) error {
	tmp := make([]byte, 32*1024)
	for len(pr.buf) < min {
		n, err := pr.r.Read(tmp)
		if n > 0 {
			pr.buf = append(pr.buf, tmp[:n]...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadPacket blocks until one full packet is available and returns its
// type and payload (header stripped).
func (pr *PacketReader) ReadPacket() (PacketType, []byte, error) {
	if err := pr.fill(PacketHeaderSize); err != nil {
		return 0, nil, err
	}
	length, typ, err := DecodePacketHeader(pr.buf)
	if err != nil {
		return 0, nil, err
	}
	if length < PacketHeaderSize {
		return 0, nil, ErrMalformedPacket
	}
	if err := pr.fill(int(length)); err != nil {
		return 0, nil, err
	}
	payload := make([]byte, length-PacketHeaderSize)
	copy(payload, pr.buf[PacketHeaderSize:length])

	residue := make([]byte, len(pr.buf)-int(length))
	copy(residue, pr.buf[length:])
	pr.buf = residue

	return typ, payload, nil
}
