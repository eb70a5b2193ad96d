// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpip

import "errors"

var (
	ErrMalformedPacket  = errors.New("ptpip: malformed packet")
	ErrInitFailed       = errors.New("ptpip: device rejected the init handshake")
	ErrUnexpectedPacket = errors.New("ptpip: unexpected packet type")
)
