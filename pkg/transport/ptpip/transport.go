// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpip

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport"
)

const (
	// defaultFriendlyName is our own choice of client identity (spec §9
	// Open Questions: the GUID/name are not required to match the
	// original source's hard-coded values).
	defaultFriendlyName = "go-ptp-sdio"

	protocolVersion = 0x00010000

	defaultDialTimeout = 20 * time.Second

	// dataPrefixLen is the carrier prefix AllocBuffer reserves (spec §9
	// "carrier type"); SendAndRecv trims it back off before framing the
	// payload into Start-Data/Data/End-Data packets.
	dataPrefixLen = 4
)

// Transport implements transport.Transport over a PTP-IP data socket plus
// a separate event socket opened once the data socket authenticates (spec
// §4.2 "PTP-IP framing").
type Transport struct {
	dataConn  net.Conn
	eventConn net.Conn
	dataR     *PacketReader
	eventR    *PacketReader

	friendlyName string
	timeout      time.Duration
}

type Option func(*dialConfig)

type dialConfig struct {
	friendlyName string
	timeout      time.Duration
	guid         [16]byte
	hasGUID      bool
}

func WithFriendlyName(name string) Option {
	return func(c *dialConfig) { c.friendlyName = name }
}

func WithTimeout(d time.Duration) Option {
	return func(c *dialConfig) { c.timeout = d }
}

// WithGUID pins the Init Command Request GUID instead of generating a
// random one at dial time.
func WithGUID(guid [16]byte) Option {
	return func(c *dialConfig) { c.guid = guid; c.hasGUID = true }
}

// Dial performs the full PTP-IP handshake against host: opens the data
// socket, exchanges Init Command Request/Ack, then opens the event socket
// and exchanges Init Event Request/Ack using the connection id the data
// socket was assigned (spec §4.2, §6, scenario S5).
func Dial(host string, opts ...Option) (*Transport, error) {
	cfg := &dialConfig{friendlyName: defaultFriendlyName, timeout: defaultDialTimeout}
	for _, o := range opts {
		o(cfg)
	}
	guid := cfg.guid
	if !cfg.hasGUID {
		g := uuid.New()
		copy(guid[:], g[:])
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", DataPort))
	dataConn, err := net.DialTimeout("tcp", addr, cfg.timeout)
	if err != nil {
		return nil, fmt.Errorf("ptpip: dial data socket: %w", err)
	}

	dataR := NewPacketReader(dataConn)
	req := EncodeInitCommandRequest(guid, cfg.friendlyName, protocolVersion)
	if _, err := dataConn.Write(EncodePacket(PktInitCommandRequest, req)); err != nil {
		dataConn.Close()
		return nil, fmt.Errorf("ptpip: send init command request: %w", err)
	}
	typ, payload, err := dataR.ReadPacket()
	if err != nil {
		dataConn.Close()
		return nil, fmt.Errorf("ptpip: read init command ack: %w", err)
	}
	if typ == PktInitFail {
		dataConn.Close()
		return nil, ErrInitFailed
	}
	if typ != PktInitCommandAck {
		dataConn.Close()
		return nil, ErrUnexpectedPacket
	}
	ack, err := DecodeInitCommandAck(payload)
	if err != nil {
		dataConn.Close()
		return nil, err
	}

	eventConn, err := net.DialTimeout("tcp", addr, cfg.timeout)
	if err != nil {
		dataConn.Close()
		return nil, fmt.Errorf("ptpip: dial event socket: %w", err)
	}
	eventR := NewPacketReader(eventConn)
	if _, err := eventConn.Write(EncodePacket(PktInitEventRequest, EncodeInitEventRequest(ack.ConnectionID))); err != nil {
		dataConn.Close()
		eventConn.Close()
		return nil, fmt.Errorf("ptpip: send init event request: %w", err)
	}
	typ, _, err = eventR.ReadPacket()
	if err != nil {
		dataConn.Close()
		eventConn.Close()
		return nil, fmt.Errorf("ptpip: read init event ack: %w", err)
	}
	if typ != PktInitEventAck {
		dataConn.Close()
		eventConn.Close()
		return nil, ErrUnexpectedPacket
	}

	return &Transport{
		dataConn:     dataConn,
		eventConn:    eventConn,
		dataR:        dataR,
		eventR:       eventR,
		friendlyName: cfg.friendlyName,
		timeout:      cfg.timeout,
	}, nil
}

func (t *Transport) RequiresSessionOpenClose() bool { return true }

// AllocBuffer reserves a 4-byte prefix so callers (the USB and IP
// transports alike) build data-in buffers with the same carrier shape,
// even though IP framing chunks the payload across many packets rather
// than one contiguous frame (spec §9 "carrier type"); the prefix itself is
// unused here and only trimmed off in SendAndRecv.
func (t *Transport) AllocBuffer(kind transport.BufferKind, old, n int) []byte {
	return make([]byte, dataPrefixLen+n)
}

func (t *Transport) FreeBuffer(kind transport.BufferKind, buf []byte) {}

func (t *Transport) DataPrefixLen(kind transport.BufferKind) int { return dataPrefixLen }

// SendAndRecv issues one Command Request, optionally streams a data-in
// phase as Start-Data/Data.../End-Data, then reads Start-Data/Data.../
// End-Data (if the operation has a data-out phase) followed by a Command
// Response (spec §4.2 "Per transaction").
func (t *Transport) SendAndRecv(req *transport.Request, dataIn []byte, dataOutCap int) (*transport.Response, []byte, error) {
	hasDataIn := len(dataIn) > dataPrefixLen
	cmdPayload := EncodeCommandRequest(hasDataIn, req.OpCode, req.TransactionID, req.Params[:req.NumParams])
	if _, err := t.dataConn.Write(EncodePacket(PktCommandRequest, cmdPayload)); err != nil {
		return nil, nil, fmt.Errorf("ptpip: write command request: %w", err)
	}

	if hasDataIn {
		payload := dataIn[dataPrefixLen:]
		if _, err := t.dataConn.Write(EncodePacket(PktStartData, EncodeStartData(req.TransactionID, uint64(len(payload))))); err != nil {
			return nil, nil, fmt.Errorf("ptpip: write start-data: %w", err)
		}
		const chunk = 16 * 1024
		off := 0
		for off < len(payload) {
			end := off + chunk
			if end > len(payload) {
				end = len(payload)
			}
			pkt := PktData
			if end == len(payload) {
				pkt = PktEndData
			}
			if _, err := t.dataConn.Write(EncodePacket(pkt, EncodeDataPacket(req.TransactionID, payload[off:end]))); err != nil {
				return nil, nil, fmt.Errorf("ptpip: write data chunk: %w", err)
			}
			off = end
		}
		if len(payload) == 0 {
			if _, err := t.dataConn.Write(EncodePacket(PktEndData, EncodeEndData(req.TransactionID, nil))); err != nil {
				return nil, nil, fmt.Errorf("ptpip: write end-data: %w", err)
			}
		}
	}

	return t.readUntilResponse(dataOutCap)
}

func (t *Transport) readUntilResponse(dataOutCap int) (*transport.Response, []byte, error) {
	dataOut := make([]byte, 0, dataOutCap)
	for {
		typ, payload, err := t.dataR.ReadPacket()
		if err != nil {
			return nil, nil, fmt.Errorf("ptpip: read: %w", err)
		}
		switch typ {
		case PktStartData:
			continue
		case PktData, PktEndData:
			_, chunk, err := DecodeDataPhasePacket(payload)
			if err != nil {
				return nil, nil, err
			}
			if len(dataOut) < cap(dataOut) {
				room := cap(dataOut) - len(dataOut)
				if room > len(chunk) {
					room = len(chunk)
				}
				dataOut = append(dataOut, chunk[:room]...)
			}
			continue
		case PktCommandResponse:
			cr, err := DecodeCommandResponse(payload)
			if err != nil {
				return nil, nil, err
			}
			resp := &transport.Response{ResponseCode: cr.ResponseCode, NumParams: len(cr.Params)}
			copy(resp.Params[:], cr.Params)
			return resp, dataOut, nil
		default:
			return nil, nil, ErrUnexpectedPacket
		}
	}
}

func (t *Transport) Reset() error {
	return nil
}

func (t *Transport) Close() error {
	err1 := t.dataConn.Close()
	err2 := t.eventConn.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
