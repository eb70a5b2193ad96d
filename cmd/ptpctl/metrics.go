// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/metric"
)

// serveMetricsCmd is named for parity with a long-running scrape target,
// but like the teacher's tcgdiskstat it performs one connect-and-gather
// pass and writes Prometheus text format to stdout rather than binding a port.
type serveMetricsCmd struct {
	Device string `arg:"" help:"Device index or substring from 'discover'"`
}

func (c *serveMetricsCmd) Run(ctx *context) error {
	reg, dev, s, err := connectByQuery(c.Device)
	if err != nil {
		return err
	}
	defer closeSession(reg, dev, s)

	collector := metric.NewCollector(func() []metric.Source {
		return []metric.Source{{Device: dev.Info, Session: s}}
	})

	return gatherAndPrint(collector)
}

func gatherAndPrint(collector prometheus.Collector) error {
	promReg := prometheus.NewPedanticRegistry()
	if err := promReg.Register(collector); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}
	mfs, err := promReg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return fmt.Errorf("serialize metrics: %w", err)
		}
	}
	return nil
}
