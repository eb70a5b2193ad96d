// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ptpctl is a reference CLI over pkg/backend and pkg/ptp: discover
// imaging devices, connect a session, inspect and drive properties and
// controls, and pull images, live-view frames, and camera-settings blobs.
package main

import (
	"github.com/alecthomas/kong"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/cmdutil"
)

const (
	programName = "ptpctl"
	programDesc = "Sony PTP/SDIO device control"
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.NamedMapper("accessiblefile", cmdutil.AccessibleFileMapper()),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	err := ctx.Run(&context{})
	ctx.FatalIfErrorf(err)
}
