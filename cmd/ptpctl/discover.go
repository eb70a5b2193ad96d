// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

type discoverCmd struct{}

// Run lists every device the USB and IP backends can see. Output is padded
// into columns only when stdout is an interactive terminal; piped output
// stays tab-separated so it composes with awk/cut.
func (c *discoverCmd) Run(ctx *context) error {
	reg := newRegistry()
	devices, err := reg.RefreshList()
	if err != nil {
		return fmt.Errorf("RefreshList: %w", err)
	}
	if len(devices) == 0 {
		fmt.Println("no devices found")
		return nil
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	for i, d := range devices {
		if interactive {
			fmt.Printf("%-3d %-6s %-16s %-10s %s\n", i, d.Backend, d.Product, d.Serial, d.NetworkAddress)
		} else {
			fmt.Printf("%d\t%s\t%s\t%s\t%s\n", i, d.Backend, d.Product, d.Serial, d.NetworkAddress)
		}
	}
	return nil
}
