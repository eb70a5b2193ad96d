// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/metadata"
)

type infoCmd struct {
	Device string `arg:"" help:"Device index or substring of its backend/product/serial label, from 'discover'"`
}

// Run connects to a device and dumps its standard device info and its full
// property cache, formatted the way the teacher's diagnostic dump tool
// renders nested protocol structures.
func (c *infoCmd) Run(ctx *context) error {
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	fmt.Println("device info:")
	spew.Dump(s.DeviceInfo)

	fmt.Println("properties:")
	for _, p := range s.Properties() {
		fmt.Printf("  %-24s = %s\n", metadata.PropertyName(p.Code), metadata.FormatPropertyValue(p.Code, p.Current))
	}
	spew.Dump(s.Properties())
	return nil
}
