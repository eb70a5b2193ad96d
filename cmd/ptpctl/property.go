// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/metadata"
	ptpproto "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
)

type getPropertyCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
	Code   string `arg:"" help:"Property code, e.g. 0x5007 or 5007 (hex)"`
}

func (c *getPropertyCmd) Run(ctx *context) error {
	code, err := parsePropCode(c.Code)
	if err != nil {
		return err
	}
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	p, ok := s.GetProperty(code)
	if !ok {
		return fmt.Errorf("device does not support property %#04x", uint16(code))
	}
	fmt.Printf("%s = %s\n", metadata.PropertyName(code), metadata.FormatPropertyValue(code, p.Current))
	return nil
}

type setPropertyCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
	Code   string `arg:"" help:"Property code, e.g. 0x5005 (hex)"`
	Value  string `arg:"" help:"New value, interpreted per the property's cached data type"`
}

func (c *setPropertyCmd) Run(ctx *context) error {
	code, err := parsePropCode(c.Code)
	if err != nil {
		return err
	}
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	p, ok := s.GetProperty(code)
	if !ok {
		return fmt.Errorf("device does not support property %#04x", uint16(code))
	}
	if p.IsNotch {
		delta, err := strconv.ParseInt(c.Value, 10, 8)
		if err != nil {
			return fmt.Errorf("notch property %s requires a signed step, not %q", metadata.PropertyName(code), c.Value)
		}
		return s.SetPropertyNotch(code, int8(delta))
	}
	v, err := parseValue(p.DataType, c.Value)
	if err != nil {
		return err
	}
	return s.SetProperty(code, v)
}

// parsePropCode accepts both "0x5007" and bare "5007" hex forms, matching
// how the device info dump and the Sony documentation both print codes.
func parsePropCode(s string) (ptp.PropCode, error) {
	n, err := strconv.ParseUint(trimHexPrefix(s), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid property code %q: %w", s, err)
	}
	return ptp.PropCode(n), nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return s[2:]
	}
	return s
}

// parseValue interprets raw against dt, covering the scalar data types the
// SDIO property and control wire formats actually carry.
func parseValue(dt ptpproto.DataType, raw string) (ptp.Value, error) {
	switch dt {
	case ptpproto.DTUint8, ptpproto.DTUint16, ptpproto.DTUint32, ptpproto.DTUint64:
		n, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			return ptp.Value{}, fmt.Errorf("invalid unsigned value %q: %w", raw, err)
		}
		switch dt {
		case ptpproto.DTUint8:
			return ptp.U8(uint8(n)), nil
		case ptpproto.DTUint16:
			return ptp.U16(uint16(n)), nil
		case ptpproto.DTUint32:
			return ptp.U32(uint32(n)), nil
		default:
			return ptp.U64(n), nil
		}
	case ptpproto.DTInt8, ptpproto.DTInt16, ptpproto.DTInt32, ptpproto.DTInt64:
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return ptp.Value{}, fmt.Errorf("invalid signed value %q: %w", raw, err)
		}
		switch dt {
		case ptpproto.DTInt8:
			return ptp.I8(int8(n)), nil
		case ptpproto.DTInt16:
			return ptp.I16(int16(n)), nil
		case ptpproto.DTInt32:
			return ptp.I32(int32(n)), nil
		default:
			return ptp.I64(n), nil
		}
	case ptpproto.DTStr:
		return ptp.Str(raw), nil
	default:
		return ptp.Value{}, fmt.Errorf("unsupported data type %v for command-line input", dt)
	}
}
