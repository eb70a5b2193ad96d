// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"fmt"

	usbhost "github.com/daedaluz/gousb"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport"
)

// Still-Image class/subclass/protocol identifying a PTP interface (spec
// §4.3 discovery specifics).
const (
	classStillImage  = 0x06
	subclassStillImg = 0x01
	protocolPTPBulk  = 0x01
	vendorSony       = 0x054C
)

const defaultTimeoutMillis = 20_000

// Transport implements transport.Transport over a gousb bulk pipe pair
// using the USB container-header framing (spec §4.2 "USB framing").
type Transport struct {
	dev         *usbhost.Device
	epIn, epOut uint8
	timeout     uint32
}

// Open claims the Still-Image interface's bulk endpoints on dev.
func Open(dev *usbhost.Device) (*Transport, error) {
	if !dev.IsOpen() {
		if err := dev.Open(); err != nil {
			return nil, fmt.Errorf("usb: open device: %w", err)
		}
	}
	epIn, epOut, err := findBulkEndpoints(dev)
	if err != nil {
		return nil, err
	}
	return &Transport{dev: dev, epIn: epIn, epOut: epOut, timeout: defaultTimeoutMillis}, nil
}

func findBulkEndpoints(dev *usbhost.Device) (in, out uint8, err error) {
	var foundIn, foundOut bool
	for _, d := range dev.Descriptors {
		ep, ok := d.(*usbhost.EndpointDescriptor)
		if !ok {
			continue
		}
		// BmAttributes bits 1:0 == 10 => bulk.
		if ep.BmAttributes&0x03 != 0x02 {
			continue
		}
		if ep.BEndpointAddress&0x80 != 0 {
			in = ep.BEndpointAddress
			foundIn = true
		} else {
			out = ep.BEndpointAddress
			foundOut = true
		}
	}
	if !foundIn || !foundOut {
		return 0, 0, fmt.Errorf("usb: no Still-Image bulk endpoint pair found")
	}
	return in, out, nil
}

// IsPTPDevice reports whether dev exposes a Still-Image/PTP bulk
// interface, the filter backend discovery applies (spec §4.3).
func IsPTPDevice(dev *usbhost.Device) bool {
	for _, d := range dev.Descriptors {
		iface, ok := d.(*usbhost.InterfaceDescriptor)
		if !ok {
			continue
		}
		if uint8(iface.BInterfaceClass) == classStillImage &&
			uint8(iface.BInterfaceSubClass) == subclassStillImg &&
			iface.BInterfaceProtocol == protocolPTPBulk {
			return true
		}
	}
	return false
}

func (t *Transport) RequiresSessionOpenClose() bool { return true }

// AllocBuffer reserves HeaderSize bytes ahead of the caller's n usable
// bytes, matching the buffer-prefix invariant (spec §3, §8(10)). old is
// informational only; Go's allocator reclaims the previous slice.
func (t *Transport) AllocBuffer(kind transport.BufferKind, old, n int) []byte {
	buf := make([]byte, HeaderSize+n)
	return buf
}

func (t *Transport) FreeBuffer(kind transport.BufferKind, buf []byte) {
	// Garbage collected; nothing to release explicitly.
}

func (t *Transport) DataPrefixLen(kind transport.BufferKind) int { return HeaderSize }

// SendAndRecv issues one command/data-in/data-out/response transaction
// over the bulk pipe pair (spec §4.2 "Transaction model").
func (t *Transport) SendAndRecv(req *transport.Request, dataIn []byte, dataOutCap int) (*transport.Response, []byte, error) {
	cmd := EncodeCommand(req.OpCode, req.TransactionID, req.Params[:req.NumParams])
	if _, err := t.dev.BulkTimeout(t.epOut, cmd, t.timeout); err != nil {
		return nil, nil, fmt.Errorf("usb: write command: %w", err)
	}

	if len(dataIn) > HeaderSize {
		EncodeData(dataIn, req.OpCode, req.TransactionID)
		if err := t.writeChunked(dataIn); err != nil {
			return nil, nil, fmt.Errorf("usb: write data-in: %w", err)
		}
	}

	return t.readUntilResponse(dataOutCap)
}

func (t *Transport) writeChunked(buf []byte) error {
	const chunk = 16 * 1024
	for off := 0; off < len(buf); off += chunk {
		end := off + chunk
		if end > len(buf) {
			end = len(buf)
		}
		if _, err := t.dev.BulkTimeout(t.epOut, buf[off:end], t.timeout); err != nil {
			return err
		}
	}
	return nil
}

// readUntilResponse reads bulk-in packets: a Data container whose header
// carries the full data-phase length, followed by as many raw continuation
// packets as it takes to accumulate that many bytes (the device is free to
// split the data phase across short packets, and only the first packet of
// the phase carries a container header), followed by one Response
// container (spec §4.2 "read loop").
func (t *Transport) readUntilResponse(dataOutCap int) (*transport.Response, []byte, error) {
	dataOut := make([]byte, 0, dataOutCap)
	readBufSize := HeaderSize + dataOutCap
	if readBufSize < HeaderSize+16*1024 {
		readBufSize = HeaderSize + 16*1024
	}

	buf := make([]byte, readBufSize)
	n, err := t.dev.BulkTimeout(t.epIn, buf, t.timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("usb: read: %w", err)
	}
	if n < HeaderSize {
		return nil, nil, transport.ErrMalformedResponse
	}
	buf = buf[:n]
	hdr, err := DecodeHeader(buf)
	if err != nil {
		return nil, nil, err
	}

	if hdr.Type == ContainerData {
		want := int(hdr.Length) - HeaderSize
		got := len(buf) - HeaderSize
		dataOut = appendCapped(dataOut, buf[HeaderSize:], dataOutCap)
		for got < want {
			n, err := t.dev.BulkTimeout(t.epIn, buf[:cap(buf)], t.timeout)
			if err != nil {
				return nil, nil, fmt.Errorf("usb: read data continuation: %w", err)
			}
			got += n
			dataOut = appendCapped(dataOut, buf[:n], dataOutCap)
		}

		n, err = t.dev.BulkTimeout(t.epIn, buf[:cap(buf)], t.timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("usb: read: %w", err)
		}
		if n < HeaderSize {
			return nil, nil, transport.ErrMalformedResponse
		}
		buf = buf[:n]
		hdr, err = DecodeHeader(buf)
		if err != nil {
			return nil, nil, err
		}
	}

	if hdr.Type != ContainerResponse {
		return nil, nil, transport.ErrMalformedResponse
	}
	params := DecodeResponseParams(buf, hdr)
	resp := &transport.Response{
		ResponseCode: hdr.Code,
		NumParams:    len(params),
	}
	copy(resp.Params[:], params)
	return resp, dataOut, nil
}

// appendCapped appends as much of payload as fits within cap bytes total,
// silently dropping the remainder: a caller that under-sized dataOutCap
// gets a truncated buffer rather than an unbounded allocation driven by a
// device-declared length.
func appendCapped(dataOut, payload []byte, capBytes int) []byte {
	if len(dataOut) >= capBytes {
		return dataOut
	}
	room := capBytes - len(dataOut)
	if room > len(payload) {
		room = len(payload)
	}
	return append(dataOut, payload[:room]...)
}

func (t *Transport) Reset() error {
	return nil
}

func (t *Transport) Close() error {
	return t.dev.Close()
}
