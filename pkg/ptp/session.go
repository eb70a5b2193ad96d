// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptp implements the PTP/SDIO session engine (L4): the connect
// handshake, the typed property/control get-set API, and image/settings
// transfer, built on top of the wire vocabulary in pkg/ptp/proto and the
// descriptor cache in pkg/ptp/descriptor.
package ptp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/descriptor"
	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/transport"
)

const (
	DefaultReceiveRetries     = 100
	DefaultReceiveInterval    = 10 * time.Millisecond
	extDeviceInfoConnectTries = 10
	defaultObjectInfoBufCap   = 1024
	defaultAllPropsBufCap     = 64 * 1024
)

var (
	ErrTimeout            = ptp.ErrTimeout
	ErrConnectionClosed   = ptp.ErrConnectionClosed
	ErrMalformedResponse  = ptp.ErrMalformedResponse
	ErrNotSupported       = ptp.ErrNotSupported
	ErrNotANotchProperty  = ptp.ErrNotANotchProperty
	ErrBackendUnavailable = ptp.ErrBackendUnavailable

	// ProtocolVersion200 and ProtocolVersion300 re-export the SDIO
	// extension versions for callers that only import pkg/ptp.
	ProtocolVersion200 = ptp.ProtocolVersion200
	ProtocolVersion300 = ptp.ProtocolVersion300
)

type ProtocolVersion = ptp.ProtocolVersion
type Value = ptp.Value
type PropCode = ptp.PropCode
type ControlCode = ptp.ControlCode

// Re-export the Value constructors so callers need not import pkg/ptp/proto
// directly (mirrors the teacher's re-export-free style, except here the
// base vocabulary genuinely lives one package down).
var (
	U8  = ptp.U8
	U16 = ptp.U16
	U32 = ptp.U32
	U64 = ptp.U64
	I8  = ptp.I8
	I16 = ptp.I16
	I32 = ptp.I32
	I64 = ptp.I64
	Str = ptp.Str
)

// Session drives one connected Device through the SDIO connect handshake
// and the typed get/set/control/transfer operations built on top of it
// (spec §3 "Session", §4.4).
type Session struct {
	t transport.Transport

	sessionID     uint32
	transactionID uint32
	closed        bool
	disconnected  bool

	ProtocolVersion     ptp.ProtocolVersion
	SupportedProperties map[ptp.PropCode]bool
	SupportedControls   map[ptp.ControlCode]bool
	DeviceInfo          *DeviceInfo

	properties map[ptp.PropCode]*descriptor.PropertyDescriptor
	controls   map[ptp.ControlCode]*descriptor.ControlDescriptor

	logger          *log.Logger
	receiveRetries  int
	receiveInterval time.Duration

	controlLookup ControlLookup
}

// ControlLookup resolves the static metadata for a supported-control code
// that Connect's descriptor load didn't carry on the wire (spec §4.4 step
// 7). pkg/ptp/metadata.ControlsTable satisfies this shape via
// metadata.Lookup, passed in through WithControlMetadata so pkg/ptp never
// imports pkg/ptp/metadata back (metadata already imports pkg/ptp/proto and
// pkg/ptp/descriptor).
type ControlLookup func(code ptp.ControlCode) (name string, dt ptp.DataType, form ptp.FormFlag, enum []ptp.Value, rng descriptor.RangeForm, ok bool)

type SessionOpt func(*Session)

func WithLogger(l *log.Logger) SessionOpt {
	return func(s *Session) { s.logger = l }
}

// WithReceiveTimeout stores a retry count and interval on the Session.
// Connect does not read them: its SDIO_GetExtDeviceInfo step (the engine's
// one automatic retry) always makes extDeviceInfoConnectTries attempts
// with no delay between them.
func WithReceiveTimeout(retries int, interval time.Duration) SessionOpt {
	return func(s *Session) { s.receiveRetries = retries; s.receiveInterval = interval }
}

// WithControlMetadata wires a static control-metadata lookup into Connect's
// step 7 (spec §4.4): supported-control codes the wire parser didn't
// describe are seeded from it.
func WithControlMetadata(lookup ControlLookup) SessionOpt {
	return func(s *Session) { s.controlLookup = lookup }
}

// NewSession wraps an opened Transport (spec §3 "Session lives from
// connect to cleanup, bound to one Device").
func NewSession(t transport.Transport, opts ...SessionOpt) *Session {
	s := &Session{
		t:                   t,
		properties:          map[ptp.PropCode]*descriptor.PropertyDescriptor{},
		controls:            map[ptp.ControlCode]*descriptor.ControlDescriptor{},
		SupportedProperties: map[ptp.PropCode]bool{},
		SupportedControls:   map[ptp.ControlCode]bool{},
		receiveRetries:      DefaultReceiveRetries,
		receiveInterval:     DefaultReceiveInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// transact issues one PTP transaction, incrementing the transaction id
// whether or not it fails, and translating a transport-level connection
// closure into the Session's disconnected state (spec §7 "connection-closed").
func (s *Session) transact(op ptp.OpCode, params []uint32, dataIn []byte, dataOutCap int) (*transport.Response, []byte, error) {
	if s.disconnected {
		return nil, nil, ErrConnectionClosed
	}
	req := &transport.Request{
		OpCode:        uint16(op),
		SessionID:     s.sessionID,
		TransactionID: s.transactionID,
		NumParams:     len(params),
	}
	copy(req.Params[:], params)

	resp, dataOut, err := s.t.SendAndRecv(req, dataIn, dataOutCap)
	s.transactionID++
	if err != nil {
		if errors.Is(err, transport.ErrConnectionClosed) {
			s.disconnected = true
			return nil, nil, ErrConnectionClosed
		}
		return nil, nil, err
	}
	if cerr := ptp.CheckResponse(ptp.ResponseCode(resp.ResponseCode)); cerr != nil {
		return resp, dataOut, cerr
	}
	return resp, dataOut, nil
}

func writeValueBuffer(t transport.Transport, v ptp.Value) ([]byte, error) {
	w := ptpio.NewWriter()
	if err := ptp.WriteValue(w, v); err != nil {
		return nil, err
	}
	prefix := t.DataPrefixLen(transport.BufferIn)
	buf := t.AllocBuffer(transport.BufferIn, 0, w.Len())
	copy(buf[prefix:], w.Bytes())
	return buf, nil
}

// Connect drives the Sony SDIO authentication handshake and loads the
// descriptor cache (spec §4.4 "Connect sequence"). A failure at any step
// leaves the transport open; the caller may retry Connect or tear it down.
func (s *Session) Connect() error {
	if s.t.RequiresSessionOpenClose() {
		req := &transport.Request{OpCode: uint16(ptp.OC_OpenSession), NumParams: 1}
		req.Params[0] = 1
		resp, _, err := s.t.SendAndRecv(req, nil, 0)
		if err != nil {
			return fmt.Errorf("ptp: OpenSession: %w", err)
		}
		if err := ptp.CheckResponse(ptp.ResponseCode(resp.ResponseCode)); err != nil {
			return fmt.Errorf("ptp: OpenSession: %w", err)
		}
		s.sessionID = 1
		s.transactionID = 1
	}

	if _, _, err := s.transact(ptp.OC_SDIOConnect, []uint32{1, 0, 0}, nil, 0); err != nil {
		return fmt.Errorf("ptp: SDIO_Connect phase 1: %w", err)
	}
	if _, _, err := s.transact(ptp.OC_SDIOConnect, []uint32{2, 0, 0}, nil, 0); err != nil {
		return fmt.Errorf("ptp: SDIO_Connect phase 2: %w", err)
	}

	extInfo, err := s.getExtDeviceInfoWithRetry()
	if err != nil {
		return err
	}
	s.ProtocolVersion = extInfo.ProtocolVersion
	s.SupportedProperties = map[ptp.PropCode]bool{}
	for _, p := range extInfo.SupportedProperties {
		s.SupportedProperties[p] = true
	}
	s.SupportedControls = map[ptp.ControlCode]bool{}
	for _, c := range extInfo.SupportedControls {
		s.SupportedControls[c] = true
	}

	if _, _, err := s.transact(ptp.OC_SDIOConnect, []uint32{3, 0, 0}, nil, 0); err != nil {
		return fmt.Errorf("ptp: SDIO_Connect phase 3: %w", err)
	}

	_, diData, err := s.transact(ptp.OC_GetDeviceInfo, nil, nil, defaultObjectInfoBufCap)
	if err != nil {
		return fmt.Errorf("ptp: GetDeviceInfo: %w", err)
	}
	di, err := ParseDeviceInfo(diData)
	if err != nil {
		return err
	}
	s.DeviceInfo = di

	if err := s.loadProperties(false); err != nil {
		return err
	}
	if s.controlLookup != nil {
		s.SeedControls(s.controlLookup)
	}
	return nil
}

// getExtDeviceInfoWithRetry calls SDIO_GetExtDeviceInfo up to 10 times,
// the engine's one sanctioned automatic retry (spec §4.4 step 3, §7).
func (s *Session) getExtDeviceInfoWithRetry() (*ExtDeviceInfo, error) {
	var lastErr error
	for attempt := 0; attempt < extDeviceInfoConnectTries; attempt++ {
		_, data, err := s.transact(ptp.OC_SDIOGetExtDeviceInfo, []uint32{uint32(ptp.ProtocolVersion300), 1}, nil, defaultObjectInfoBufCap)
		if err == nil {
			info, perr := ParseExtDeviceInfo(data)
			if perr == nil {
				return info, nil
			}
			lastErr = perr
		} else {
			lastErr = err
		}
		s.logf("ptp: SDIO_GetExtDeviceInfo attempt %d/%d failed: %v", attempt+1, extDeviceInfoConnectTries, lastErr)
	}
	return nil, fmt.Errorf("ptp: SDIO_GetExtDeviceInfo: %w", lastErr)
}

// loadProperties calls SDIO_GetAllExtDevicePropInfo and populates (or, if
// incremental, merges into) the property and control cache (spec §4.4
// "Incremental refresh").
func (s *Session) loadProperties(incremental bool) error {
	var incFlag uint32
	if incremental {
		incFlag = 1
	}
	_, data, err := s.transact(ptp.OC_SDIOGetAllExtDevicePropInfo, []uint32{incFlag, 1}, nil, defaultAllPropsBufCap)
	if err != nil {
		return fmt.Errorf("ptp: SDIO_GetAllExtDevicePropInfo: %w", err)
	}
	r := ptpio.NewReader(data)
	props, controls, err := descriptor.ParseAllExtDevicePropInfo(r, s.ProtocolVersion, s.SupportedControls)
	if err != nil {
		return err
	}

	if incremental {
		for _, p := range props {
			if existing, ok := s.properties[p.Code]; ok {
				p.IsNotch = existing.IsNotch
			}
			s.properties[p.Code] = p
		}
	} else {
		s.properties = make(map[ptp.PropCode]*descriptor.PropertyDescriptor, len(props))
		for _, p := range props {
			s.properties[p.Code] = p
		}
	}
	for _, c := range controls {
		s.controls[c.Code] = c
	}
	return nil
}

// SeedControls is connect step 7: for every supported-control code lacking
// a cache entry (it wasn't carried on the wire, which happens on protocol
// >= 300 since the op only returns controls inline on protocol 200), lookup
// seeds one from a caller-supplied metadata source (spec §4.4 step 7). This
// lets the caller plug in the static metadata table (pkg/ptp/metadata)
// without pkg/ptp importing it back, which would cycle.
func (s *Session) SeedControls(lookup ControlLookup) {
	for code := range s.SupportedControls {
		if _, ok := s.controls[code]; ok {
			continue
		}
		name, dt, form, enum, rng, ok := lookup(code)
		if !ok {
			continue
		}
		s.controls[code] = &descriptor.ControlDescriptor{
			Code: code, Name: name, DataType: dt, Form: form, Enum: enum, Range: rng,
		}
	}
}

// UpdateProperties re-reads the property/control cache incrementally,
// merging by code and preserving IsNotch (spec §4.4 "Incremental refresh").
func (s *Session) UpdateProperties() error {
	return s.loadProperties(true)
}

// GetProperty returns the cached descriptor for code with no device
// round-trip (spec §4.4 "Typed property get/set").
func (s *Session) GetProperty(code ptp.PropCode) (*descriptor.PropertyDescriptor, bool) {
	p, ok := s.properties[code]
	return p, ok
}

// GetControl returns the cached descriptor for a control code.
func (s *Session) GetControl(code ptp.ControlCode) (*descriptor.ControlDescriptor, bool) {
	c, ok := s.controls[code]
	return c, ok
}

// Properties returns every cached property descriptor.
func (s *Session) Properties() []*descriptor.PropertyDescriptor {
	out := make([]*descriptor.PropertyDescriptor, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, p)
	}
	return out
}

// SetProperty sends SDIO_SetExtDevicePropValue and, on success, updates the
// cached current value (spec §4.4). Notch properties reject this path:
// they must be driven through SetPropertyNotch (spec §8 property 8).
func (s *Session) SetProperty(code ptp.PropCode, v ptp.Value) error {
	p, ok := s.properties[code]
	if !ok {
		return ErrNotSupported
	}
	if p.IsNotch {
		return ErrNotANotchProperty
	}
	buf, err := writeValueBuffer(s.t, v)
	if err != nil {
		return err
	}
	if _, _, err := s.transact(ptp.OC_SDIOSetExtDevicePropValue, []uint32{uint32(code), uint32(v.Type)}, buf, 0); err != nil {
		return err
	}
	p.Current = v
	return nil
}

// SetPropertyNotch drives a notch property via SDIO_ControlDevice with a
// signed relative step, the only legal path for these legacy properties
// (spec §4.4, §8 property 8).
func (s *Session) SetPropertyNotch(code ptp.PropCode, delta int8) error {
	p, ok := s.properties[code]
	if !ok {
		return ErrNotSupported
	}
	if !p.IsNotch {
		return ErrNotANotchProperty
	}
	return s.controlDevice(ptp.ControlCode(code), ptp.I8(delta))
}

// SetControl issues a write-only SDIO_ControlDevice command; controls carry
// no current state to update (spec §4.4 "Controls").
func (s *Session) SetControl(code ptp.ControlCode, v ptp.Value) error {
	if _, ok := s.controls[code]; !ok {
		return ErrNotSupported
	}
	return s.controlDevice(code, v)
}

// PressControl and ReleaseControl are the toggle helper spec §4.4 names:
// value 2 for pressed, 1 for released.
func (s *Session) PressControl(code ptp.ControlCode) error {
	return s.SetControl(code, ptp.U16(2))
}

func (s *Session) ReleaseControl(code ptp.ControlCode) error {
	return s.SetControl(code, ptp.U16(1))
}

func (s *Session) controlDevice(code ptp.ControlCode, v ptp.Value) error {
	buf, err := writeValueBuffer(s.t, v)
	if err != nil {
		return err
	}
	_, _, err = s.transact(ptp.OC_SDIOControlDevice, []uint32{uint32(code), uint32(v.Type)}, buf, 0)
	return err
}

// PendingFiles reads DPC_PENDING_FILES from the cache and masks off the
// "more files pending" hint bit (spec §4.4 "Pending files").
func (s *Session) PendingFiles() (int, error) {
	p, ok := s.properties[ptp.DPCPendingFiles]
	if !ok {
		return 0, ErrNotSupported
	}
	return int(uint16(p.Current.U) & 0x7FFF), nil
}

// WaitForPendingFiles polls DPC_PENDING_FILES (via UpdateProperties) on
// interval until the count stops increasing or ctx is cancelled (spec §4.7
// supplement, grounded on SDIO_WaitForPendingFiles).
func (s *Session) WaitForPendingFiles(ctx context.Context, interval time.Duration) (int, error) {
	last := -1
	for {
		if err := s.UpdateProperties(); err != nil {
			return 0, err
		}
		count, err := s.PendingFiles()
		if err != nil {
			return 0, err
		}
		if count <= last {
			return count, nil
		}
		last = count
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (s *Session) getObjectInfo(handle uint32) (*ObjectInfo, error) {
	_, data, err := s.transact(ptp.OC_GetObjectInfo, []uint32{handle}, nil, defaultObjectInfoBufCap)
	if err != nil {
		return nil, err
	}
	return ParseObjectInfo(data)
}

func (s *Session) getObject(handle uint32, size uint32) ([]byte, error) {
	_, data, err := s.transact(ptp.OC_GetObject, []uint32{handle}, nil, int(size))
	return data, err
}

// GetCapturedImage downloads the most-recent photo via the captured-image
// pseudo object handle (spec §4.4 "Image and settings transfer").
func (s *Session) GetCapturedImage() ([]byte, *ObjectInfo, error) {
	info, err := s.getObjectInfo(ptp.ObjectHandleCapturedImage)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.getObject(ptp.ObjectHandleCapturedImage, info.ObjectCompressedSize)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

// GetLiveView downloads the live-view JPEG and, on protocol >= 300, the
// focal-frame overlay (spec §4.4, §4.6).
func (s *Session) GetLiveView() (*LiveView, error) {
	info, err := s.getObjectInfo(ptp.ObjectHandleLiveView)
	if err != nil {
		return nil, err
	}
	data, err := s.getObject(ptp.ObjectHandleLiveView, info.ObjectCompressedSize)
	if err != nil {
		return nil, err
	}
	return parseLiveView(data, s.ProtocolVersion, info)
}

// GetCameraSettingsFile downloads the camera-settings blob.
func (s *Session) GetCameraSettingsFile() ([]byte, error) {
	info, err := s.getObjectInfo(ptp.ObjectHandleCameraSettings)
	if err != nil {
		return nil, err
	}
	return s.getObject(ptp.ObjectHandleCameraSettings, info.ObjectCompressedSize)
}

// PutCameraSettingsFile uploads a previously downloaded camera-settings
// blob via SendObject (spec §4.4).
func (s *Session) PutCameraSettingsFile(data []byte) error {
	prefix := s.t.DataPrefixLen(transport.BufferIn)
	buf := s.t.AllocBuffer(transport.BufferIn, 0, len(data))
	copy(buf[prefix:], data)
	_, _, err := s.transact(ptp.OC_SendObject, []uint32{ptp.ObjectHandleCameraSettings}, buf, 0)
	return err
}

// Disconnected reports whether the transport was observed closed mid-
// transaction (spec §7 "connection-closed").
func (s *Session) Disconnected() bool { return s.disconnected }

// Close sends CloseSession when the backend requires an explicit session
// bracket (spec §4.4 step 1's counterpart).
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.t.RequiresSessionOpenClose() {
		return nil
	}
	_, _, err := s.transact(ptp.OC_CloseSession, nil, nil, 0)
	return err
}
