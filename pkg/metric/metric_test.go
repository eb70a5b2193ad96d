// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/backend"
	"github.com/open-source-firmware/go-ptp-sdio/pkg/ptp"
)

func TestCollectUndiscoveredSessionReportsDisconnectedOnly(t *testing.T) {
	c := NewCollector(func() []Source {
		return []Source{{Device: &backend.DeviceInfo{Backend: backend.TypeUSB, Product: "a7iv"}}}
	})
	if got := testutil.CollectAndCount(c); got != 2 {
		t.Fatalf("CollectAndCount() = %d; want 2 (device info + connected=0)", got)
	}
}

func TestCollectConnectedSessionEmitsProtocolVersion(t *testing.T) {
	c := NewCollector(func() []Source {
		return []Source{{
			Device:  &backend.DeviceInfo{Backend: backend.TypeIP, Product: "a7iv-ip"},
			Session: ptp.NewSession(nil),
		}}
	})
	if got := testutil.CollectAndCount(c); got < 2 {
		t.Fatalf("CollectAndCount() = %d; want at least 2 (device info + connected)", got)
	}
}

func TestPropertyLabelUsesDisplayName(t *testing.T) {
	if got := propertyLabel(ptp.PropCode(0x5007)); !strings.Contains(got, "FNumber") {
		t.Fatalf("propertyLabel(DPC_F_NUMBER) = %q; want it to mention FNumber", got)
	}
}

func TestNumericValueSkipsStrings(t *testing.T) {
	if _, ok := numericValue(ptp.Str("hello")); ok {
		t.Fatal("numericValue(Str) should not be representable as a gauge")
	}
	if v, ok := numericValue(ptp.U32(42)); !ok || v != 42 {
		t.Fatalf("numericValue(U32(42)) = %v, %v; want 42, true", v, ok)
	}
}
