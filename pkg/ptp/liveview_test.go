// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptp

import (
	"testing"

	ptp "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

func buildFocalFramesBytes(xDen, yDen uint32, frames []FocalRect) []byte {
	w := ptpio.NewWriter()
	w.U16LE(1) // version
	w.WriteBytes(make([]byte, focalFramesHeaderSkip))
	w.U16LE(0) // reservedArrayNum
	w.WriteBytes(make([]byte, 6))
	w.U32LE(xDen)
	w.U32LE(yDen)
	w.U16LE(uint16(len(frames)))
	w.WriteBytes(make([]byte, 6))
	for _, f := range frames {
		w.U16LE(f.Type)
		w.U16LE(f.State)
		w.U8(f.Priority)
		w.WriteBytes(make([]byte, 3))
		w.U32LE(f.Width)
		w.U32LE(f.Height)
	}
	return w.Bytes()
}

func TestParseFocalFrames(t *testing.T) {
	want := []FocalRect{{Type: 1, State: 2, Priority: 1, Width: 100, Height: 80}}
	data := buildFocalFramesBytes(1000, 1000, want)
	ff, err := parseFocalFrames(data)
	if err != nil {
		t.Fatalf("parseFocalFrames() error = %v", err)
	}
	if ff.XDenominator != 1000 || ff.YDenominator != 1000 {
		t.Fatalf("denominators = %d/%d; want 1000/1000", ff.XDenominator, ff.YDenominator)
	}
	if len(ff.Frames) != 1 || ff.Frames[0] != want[0] {
		t.Fatalf("Frames = %+v; want %+v", ff.Frames, want)
	}
}

func buildLiveViewBytes(image []byte, focal []byte, pv ptp.ProtocolVersion) []byte {
	headerLen := uint32(8)
	if pv >= ptp.ProtocolVersion300 {
		headerLen = 16
	}
	w := ptpio.NewWriter()
	w.U32LE(headerLen)
	w.U32LE(uint32(len(image)))
	if pv >= ptp.ProtocolVersion300 {
		if len(focal) > 0 {
			w.U32LE(headerLen + uint32(len(image)))
			w.U32LE(uint32(len(focal)))
		} else {
			w.U32LE(0)
			w.U32LE(0)
		}
	}
	w.WriteBytes(image)
	w.WriteBytes(focal)
	return w.Bytes()
}

func TestParseLiveViewProtocol200NoFocal(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	data := buildLiveViewBytes(image, nil, ptp.ProtocolVersion200)
	lv, err := parseLiveView(data, ptp.ProtocolVersion200, &ObjectInfo{Filename: "x.jpg"})
	if err != nil {
		t.Fatalf("parseLiveView() error = %v", err)
	}
	if string(lv.Image) != string(image) {
		t.Fatalf("Image = %v; want %v", lv.Image, image)
	}
	if lv.Focal != nil {
		t.Fatal("protocol 200 live view must not carry a focal-frame structure")
	}
}

func TestParseLiveViewProtocol300WithFocal(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	focal := buildFocalFramesBytes(1000, 1000, []FocalRect{{Type: 1, Width: 50, Height: 40}})
	data := buildLiveViewBytes(image, focal, ptp.ProtocolVersion300)
	lv, err := parseLiveView(data, ptp.ProtocolVersion300, &ObjectInfo{})
	if err != nil {
		t.Fatalf("parseLiveView() error = %v", err)
	}
	if lv.Focal == nil {
		t.Fatal("protocol 300 live view with non-zero focal size must parse a focal-frame structure")
	}
	if len(lv.Focal.Frames) != 1 || lv.Focal.Frames[0].Width != 50 {
		t.Fatalf("Focal.Frames = %+v; want one 50-wide frame", lv.Focal.Frames)
	}
}

func TestParseLiveViewRejectsOutOfBoundsImage(t *testing.T) {
	w := ptpio.NewWriter()
	w.U32LE(1000) // offset way past the buffer
	w.U32LE(4)
	data := w.Bytes()
	if _, err := parseLiveView(data, ptp.ProtocolVersion200, &ObjectInfo{}); err != ptp.ErrMalformedResponse {
		t.Fatalf("parseLiveView(out-of-bounds) error = %v; want ErrMalformedResponse", err)
	}
}
