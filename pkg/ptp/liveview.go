// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptp

import (
	"fmt"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

// FocalRect is one focus-frame rectangle carried in a protocol >= 300
// live-view reply's focal-frame sub-structure (spec §4.6).
type FocalRect struct {
	Type     uint16
	State    uint16
	Priority uint8
	Width    uint32
	Height   uint32
}

// FocalFrames is the parsed focal-frame sub-structure of a live-view reply
// (spec §4.6): a denominator pair scaling frame coordinates to the image,
// followed by a flat array of focus-frame rectangles.
type FocalFrames struct {
	XDenominator uint32
	YDenominator uint32
	Frames       []FocalRect
}

// LiveView is the result of GetLiveView: the JPEG payload and, on
// protocol >= 300 devices, the parsed focal-frame overlay.
type LiveView struct {
	Info  *ObjectInfo
	Image []byte
	Focal *FocalFrames
}

const (
	focalFramesHeaderSkip  = 46
	focalFramesReservedRec = 24
)

// parseFocalFrames decodes the focal-frame sub-structure: a version, 46
// bytes of unused header, a reserved-array count with its own 24-byte
// records to skip, an x/y denominator pair, then a frame count and that
// many {type, state, priority, pad[3], width, height} records (spec §4.6,
// grounded on the original live-view parser's focus-frame layout).
func parseFocalFrames(data []byte) (*FocalFrames, error) {
	r := ptpio.NewReader(data)
	if _, err := r.U16LE(); err != nil { // version; format is otherwise stable across versions observed
		return nil, fmt.Errorf("ptp: focal frames version: %w", err)
	}
	if err := r.Skip(focalFramesHeaderSkip); err != nil {
		return nil, fmt.Errorf("ptp: focal frames header: %w", err)
	}
	reservedArrayNum, err := r.U16LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: focal frames reserved count: %w", err)
	}
	if err := r.Skip(6); err != nil {
		return nil, fmt.Errorf("ptp: focal frames reserved pad: %w", err)
	}
	if err := r.Skip(int(reservedArrayNum) * focalFramesReservedRec); err != nil {
		return nil, fmt.Errorf("ptp: focal frames reserved array: %w", err)
	}

	ff := &FocalFrames{}
	if ff.XDenominator, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: focal frames x denominator: %w", err)
	}
	if ff.YDenominator, err = r.U32LE(); err != nil {
		return nil, fmt.Errorf("ptp: focal frames y denominator: %w", err)
	}
	frameNum, err := r.U16LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: focal frames count: %w", err)
	}
	if err := r.Skip(6); err != nil {
		return nil, fmt.Errorf("ptp: focal frames count pad: %w", err)
	}

	ff.Frames = make([]FocalRect, frameNum)
	for i := range ff.Frames {
		fr := &ff.Frames[i]
		if fr.Type, err = r.U16LE(); err != nil {
			return nil, fmt.Errorf("ptp: focal frame %d type: %w", i, err)
		}
		if fr.State, err = r.U16LE(); err != nil {
			return nil, fmt.Errorf("ptp: focal frame %d state: %w", i, err)
		}
		if fr.Priority, err = r.U8(); err != nil {
			return nil, fmt.Errorf("ptp: focal frame %d priority: %w", i, err)
		}
		if err := r.Skip(3); err != nil {
			return nil, fmt.Errorf("ptp: focal frame %d pad: %w", i, err)
		}
		if fr.Width, err = r.U32LE(); err != nil {
			return nil, fmt.Errorf("ptp: focal frame %d width: %w", i, err)
		}
		if fr.Height, err = r.U32LE(); err != nil {
			return nil, fmt.Errorf("ptp: focal frame %d height: %w", i, err)
		}
	}
	return ff, nil
}

// parseLiveView decodes a GetObject(ObjectHandleLiveView) payload: an
// offset/size pair locating the JPEG image and, on protocol >= 300, a
// second offset/size pair locating the focal-frame sub-structure (spec
// §4.4 "Image and settings transfer", §4.6).
func parseLiveView(data []byte, pv ptp.ProtocolVersion, info *ObjectInfo) (*LiveView, error) {
	r := ptpio.NewReader(data)
	offsetImage, err := r.U32LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: live view image offset: %w", err)
	}
	imageSize, err := r.U32LE()
	if err != nil {
		return nil, fmt.Errorf("ptp: live view image size: %w", err)
	}

	var focalOffset, focalSize uint32
	if pv >= ptp.ProtocolVersion300 {
		if focalOffset, err = r.U32LE(); err != nil {
			return nil, fmt.Errorf("ptp: live view focal offset: %w", err)
		}
		if focalSize, err = r.U32LE(); err != nil {
			return nil, fmt.Errorf("ptp: live view focal size: %w", err)
		}
	}

	if uint64(offsetImage)+uint64(imageSize) > uint64(len(data)) {
		return nil, ptp.ErrMalformedResponse
	}
	lv := &LiveView{
		Info:  info,
		Image: append([]byte(nil), data[offsetImage:offsetImage+imageSize]...),
	}

	if focalSize > 0 {
		if uint64(focalOffset)+uint64(focalSize) > uint64(len(data)) {
			return nil, ptp.ErrMalformedResponse
		}
		focal, err := parseFocalFrames(data[focalOffset : focalOffset+focalSize])
		if err != nil {
			return nil, err
		}
		lv.Focal = focal
	}
	return lv, nil
}
