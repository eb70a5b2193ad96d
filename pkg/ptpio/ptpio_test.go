// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpio

import (
	"bytes"
	"testing"
)

func TestReaderPrimitives(t *testing.T) {
	r := NewReader([]byte{0x01, 0x03, 0x04, 0xff, 0xff, 0x01, 0x00})
	if v, err := r.U8(); err != nil || v != 0x01 {
		t.Fatalf("U8() = %v, %v; want 0x01, nil", v, err)
	}
	if v, err := r.U16LE(); err != nil || v != 0x0403 {
		t.Fatalf("U16LE() = %#x, %v; want 0x0403, nil", v, err)
	}
	if v, err := r.I16LE(); err != nil || v != -1 {
		t.Fatalf("I16LE() = %v, %v; want -1, nil", v, err)
	}
	if v, err := r.U16LE(); err != nil || v != 1 {
		t.Fatalf("U16LE() = %v, %v; want 1, nil", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d; want 0", r.Remaining())
	}
	if _, err := r.U8(); err != ErrShortBuffer {
		t.Fatalf("U8() on exhausted reader = %v; want ErrShortBuffer", err)
	}
}

func TestReaderDoesNotAdvanceOnShortRead(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.U16LE(); err != ErrShortBuffer {
		t.Fatalf("U16LE() = %v; want ErrShortBuffer", err)
	}
	if r.Remaining() != 1 {
		t.Fatalf("Remaining() = %d; want 1 (cursor must not advance on failure)", r.Remaining())
	}
}

func TestPTPStringRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		s    string
	}{
		{"empty", ""},
		{"ascii", "ILCE-7M4"},
		{"AlphaWire", "AlphaWire"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			w.PTPString(tc.s)
			r := NewReader(w.Bytes())
			got, err := r.PTPString()
			if err != nil {
				t.Fatalf("PTPString() error = %v", err)
			}
			if got != tc.s {
				t.Errorf("PTPString() = %q; want %q", got, tc.s)
			}
			if r.Remaining() != 0 {
				t.Errorf("Remaining() = %d; want 0", r.Remaining())
			}
		})
	}
}

func TestPTPStringZeroCountIsEmpty(t *testing.T) {
	r := NewReader([]byte{0x00})
	got, err := r.PTPString()
	if err != nil || got != "" {
		t.Fatalf("PTPString() = %q, %v; want \"\", nil", got, err)
	}
}

func TestWriterGrowReservesPrefix(t *testing.T) {
	w := NewWriter()
	hdr := w.Grow(12)
	if len(hdr) != 12 {
		t.Fatalf("Grow(12) returned %d bytes; want 12", len(hdr))
	}
	w.WriteBytes([]byte{0xaa, 0xbb})
	if w.Len() != 14 {
		t.Fatalf("Len() = %d; want 14", w.Len())
	}
	hdr[0] = 0x01
	if !bytes.Equal(w.Bytes()[:1], []byte{0x01}) {
		t.Fatalf("writing through the Grow() slice did not mutate the backing buffer")
	}
}
