// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptp

import (
	"testing"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

func buildObjectInfo(size uint32, filename string) []byte {
	w := ptpio.NewWriter()
	w.U32LE(0x00010001)   // storage id
	w.U16LE(0x3801)       // object format (EXIF/JPEG)
	w.U16LE(0)            // protection status
	w.U32LE(size)         // object compressed size
	w.U16LE(0)            // thumb format
	w.U32LE(0)            // thumb compressed size
	w.U32LE(0)            // thumb pix width
	w.U32LE(0)            // thumb pix height
	w.U32LE(1920)         // image pix width
	w.U32LE(1080)         // image pix height
	w.U32LE(24)           // image pix depth
	w.U32LE(0xFFFFFFFF)   // parent object
	w.U16LE(0)            // association type
	w.U32LE(0)            // association desc
	w.U32LE(1)            // sequence number
	w.PTPString(filename)
	w.PTPString("20260730T120000")
	w.PTPString("20260730T120000")
	w.PTPString("")
	return w.Bytes()
}

func TestParseObjectInfo(t *testing.T) {
	oi, err := ParseObjectInfo(buildObjectInfo(123456, "DSC0001.JPG"))
	if err != nil {
		t.Fatalf("ParseObjectInfo() error = %v", err)
	}
	if oi.ObjectCompressedSize != 123456 {
		t.Fatalf("ObjectCompressedSize = %d; want 123456", oi.ObjectCompressedSize)
	}
	if oi.Filename != "DSC0001.JPG" {
		t.Fatalf("Filename = %q; want DSC0001.JPG", oi.Filename)
	}
	if oi.ImagePixWidth != 1920 || oi.ImagePixHeight != 1080 {
		t.Fatalf("image dims = %dx%d; want 1920x1080", oi.ImagePixWidth, oi.ImagePixHeight)
	}
}

func TestParseObjectInfoTruncatedErrors(t *testing.T) {
	full := buildObjectInfo(1, "x.jpg")
	if _, err := ParseObjectInfo(full[:8]); err == nil {
		t.Fatal("ParseObjectInfo(truncated) must error")
	}
}
