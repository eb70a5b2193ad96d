// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proto

import (
	"testing"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptpio"
)

func TestValueReadWriteRoundTrip(t *testing.T) {
	cases := []Value{
		U8(0xAB),
		U16(0xBEEF),
		U32(0xDEADBEEF),
		U64(0x0102030405060708),
		I8(-12),
		I16(-1234),
		I32(-123456),
		I64(-123456789),
		Str("a7iv"),
	}
	for _, v := range cases {
		w := ptpio.NewWriter()
		if err := WriteValue(w, v); err != nil {
			t.Fatalf("WriteValue(%v) error = %v", v, err)
		}
		r := ptpio.NewReader(w.Bytes())
		got, err := ReadValue(r, v.Type)
		if err != nil {
			t.Fatalf("ReadValue() error = %v", err)
		}
		if !got.Equal(v) {
			t.Fatalf("round trip = %+v; want %+v", got, v)
		}
	}
}

func TestValueEqualIgnoresTypeMismatch(t *testing.T) {
	if U16(1).Equal(U32(1)) {
		t.Fatal("values of different Type must not compare Equal even with the same numeric content")
	}
}

func TestValueSizeScalarsVsVariableLength(t *testing.T) {
	if U8(0).Size() != 1 || I16(0).Size() != 2 || U32(0).Size() != 4 || I64(0).Size() != 8 {
		t.Fatal("scalar Size() mismatch")
	}
	if Str("x").Size() != -1 {
		t.Fatal("Str.Size() should be -1 (data-dependent)")
	}
}

func TestValueStringRendersSignedAndUnsigned(t *testing.T) {
	if I8(-5).String() != "-5" {
		t.Fatalf("I8(-5).String() = %q; want -5", I8(-5).String())
	}
	if U16(5).String() != "5" {
		t.Fatalf("U16(5).String() = %q; want 5", U16(5).String())
	}
	if Str("hello").String() != "hello" {
		t.Fatalf("Str(\"hello\").String() = %q; want hello", Str("hello").String())
	}
}

func TestCheckResponseOKIsNil(t *testing.T) {
	if err := CheckResponse(RC_OK); err != nil {
		t.Fatalf("CheckResponse(RC_OK) = %v; want nil", err)
	}
}

func TestCheckResponseWrapsKnownCode(t *testing.T) {
	err := CheckResponse(RC_DevicePropNotSupported)
	if err == nil {
		t.Fatal("CheckResponse(non-OK) must return an error")
	}
	re, ok := err.(*ResponseError)
	if !ok {
		t.Fatalf("CheckResponse() error type = %T; want *ResponseError", err)
	}
	if re.Code != RC_DevicePropNotSupported {
		t.Fatalf("ResponseError.Code = %#04x; want %#04x", uint16(re.Code), uint16(RC_DevicePropNotSupported))
	}
	if got := re.Error(); got == "" {
		t.Fatal("ResponseError.Error() must not be empty")
	}
}

func TestCheckResponseUnknownCodeStillErrors(t *testing.T) {
	err := CheckResponse(ResponseCode(0x9999))
	if err == nil {
		t.Fatal("CheckResponse(unknown non-OK code) must still return an error")
	}
}

func TestNotchControlCodeReusesPropertyCode(t *testing.T) {
	if NotchControlCode(DPCFNumber) != ControlCode(DPCFNumber) {
		t.Fatal("NotchControlCode must reuse the property's own numeric code")
	}
}
