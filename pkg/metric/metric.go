// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metric exposes a connected device's session state as Prometheus
// metrics, grounded on the teacher's drive-state collector
// (cmd/tcgdiskstat/metric.go) adapted from "one gauge per TCG feature" to
// "one gauge per PTP/SDIO property" (spec §4.5 supplement: process-static
// metadata naturally pairs with an observability surface the distilled spec
// didn't call out but the ambient stack expects).
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/backend"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/metadata"
	ptpproto "github.com/open-source-firmware/go-ptp-sdio/pkg/ptp/proto"
)

// Source pairs a discovered device with the Session monitoring it. A nil
// Session means the device was discovered but never connected.
type Source struct {
	Device  *backend.DeviceInfo
	Session *ptp.Session
}

var (
	descDeviceInfo = prometheus.NewDesc(
		"ptp_device_info",
		"Info metric for a discovered imaging device",
		[]string{"device", "manufacturer", "product", "serial", "backend"}, nil,
	)
	descConnected = prometheus.NewDesc(
		"ptp_device_connected",
		"Boolean describing whether the session to this device is connected",
		[]string{"device"}, nil,
	)
	descProtocolVersion = prometheus.NewDesc(
		"ptp_protocol_version",
		"SDIO extension protocol version negotiated at connect",
		[]string{"device"}, nil,
	)
	descPropertyValue = prometheus.NewDesc(
		"ptp_property_value",
		"Current numeric value of a device property",
		[]string{"device", "property"}, nil,
	)
	descPendingFiles = prometheus.NewDesc(
		"ptp_pending_files",
		"Number of captured files the device reports as pending transfer",
		[]string{"device"}, nil,
	)
)

// Collector implements prometheus.Collector over a Source snapshot supplied
// at scrape time, mirroring the teacher's metricCollector (Collect builds
// fresh const metrics on every call and sends each straight to the channel; Describe is a no-op
// so the collector is unchecked, matching const-metric usage without a
// fixed descriptor set known ahead of time).
type Collector struct {
	sources func() []Source
}

// NewCollector wraps a source function called once per Collect, so the
// caller controls whether sources reflects a live registry or a frozen
// snapshot.
func NewCollector(sources func() []Source) *Collector {
	return &Collector{sources: sources}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources() {
		c.collectOne(ch, src)
	}
}

func (c *Collector) collectOne(ch chan<- prometheus.Metric, src Source) {
	d := src.Device
	label := d.String()

	ch <- prometheus.MustNewConstMetric(descDeviceInfo, prometheus.GaugeValue, 1,
		label, d.Manufacturer, d.Product, d.Serial, d.Backend.String())

	if src.Session == nil {
		ch <- prometheus.MustNewConstMetric(descConnected, prometheus.GaugeValue, 0, label)
		return
	}
	s := src.Session

	connected := float64(1)
	if s.Disconnected() {
		connected = 0
	}
	ch <- prometheus.MustNewConstMetric(descConnected, prometheus.GaugeValue, connected, label)
	ch <- prometheus.MustNewConstMetric(descProtocolVersion, prometheus.GaugeValue, float64(s.ProtocolVersion), label)

	for _, p := range s.Properties() {
		v, ok := numericValue(p.Current)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(descPropertyValue, prometheus.GaugeValue, v,
			label, propertyLabel(p.Code))
	}

	if n, err := s.PendingFiles(); err == nil {
		ch <- prometheus.MustNewConstMetric(descPendingFiles, prometheus.GaugeValue, float64(n), label)
	}
}

// numericValue reports v as a float64 when its DataType is a plain integer
// scalar; strings and array types have no single numeric representation and
// are skipped (spec §4.5: a gauge needs one number, not a blob).
func numericValue(v ptp.Value) (float64, bool) {
	switch v.Type {
	case ptpproto.DTInt8, ptpproto.DTInt16, ptpproto.DTInt32, ptpproto.DTInt64:
		return float64(v.I), true
	case ptpproto.DTUint8, ptpproto.DTUint16, ptpproto.DTUint32, ptpproto.DTUint64:
		return float64(v.U), true
	default:
		return 0, false
	}
}

func propertyLabel(code ptp.PropCode) string {
	return metadata.PropertyName(code)
}
