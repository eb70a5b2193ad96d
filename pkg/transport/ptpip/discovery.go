// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptpip

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/open-source-firmware/go-ptp-sdio/pkg/backend"
)

const (
	ssdpAddr      = "239.255.255.250:1900"
	ssdpUSNMarker = ":urn:schemas-sony-com:service:DigitalImaging"
	ssdpSearchMsg = "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"ST: ssdp:all\r\n" +
		"MX: 2\r\n\r\n"
	discoveryWindow = 10 * time.Second
	httpGetTimeout  = 5 * time.Second
)

// Backend discovers Sony Imaging PTP-IP devices by SSDP M-SEARCH (spec
// §4.3, §6). RefreshList starts a new discovery window asynchronously;
// PollListUpdates drains whatever devices SSDP responses have resolved so
// far, mirroring PTPIp_RefreshList/PTPIp_PollListUpdates's non-blocking
// recvfrom loop.
type Backend struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	deadline time.Time
	inflight bool
	found    []*backend.DeviceInfo
	opened   map[*backend.DeviceInfo]*Transport
	logger   *log.Logger
}

func NewBackend(opts ...BackendOpt) *Backend {
	b := &Backend{opened: map[*backend.DeviceInfo]*Transport{}}
	for _, o := range opts {
		o(b)
	}
	return b
}

type BackendOpt func(*Backend)

// WithLogger attaches a logger used to list the candidate local interfaces
// when an M-SEARCH discovery round is sent.
func WithLogger(l *log.Logger) BackendOpt {
	return func(b *Backend) { b.logger = l }
}

func (b *Backend) Type() backend.Type { return backend.TypeIP }

// RefreshList opens a fresh wildcard-bound discovery socket, sends one
// M-SEARCH datagram from it (the OS picks the outgoing interface; it is not
// repeated per local interface), and returns immediately: results
// accumulate for PollListUpdates to drain over the next 10 seconds.
func (b *Backend) RefreshList() ([]*backend.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("ptpip: open discovery socket: %w", err)
	}

	dst, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ptpip: resolve ssdp address: %w", err)
	}

	// A single wildcard-bound socket both sends and listens for replies so
	// unicast SSDP responses (addressed back to our source port) are not
	// lost to a throwaway per-interface sender.
	if b.logger != nil {
		for _, laddr := range localIPv4Addrs() {
			b.logger.Printf("ptpip: sending M-SEARCH (candidate interface %s)", laddr)
		}
	}
	if _, err := conn.WriteToUDP([]byte(ssdpSearchMsg), dst); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ptpip: send m-search: %w", err)
	}

	b.conn = conn
	b.deadline = nowPlus(discoveryWindow)
	b.inflight = true
	b.found = nil
	return nil, nil
}

// localIPv4Addrs enumerates this host's non-loopback IPv4 addresses.
// RefreshList only logs them as candidate interfaces; it does not send
// from each of them.
func localIPv4Addrs() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []net.IP
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			out = append(out, ip4)
		}
	}
	return out
}

// FoundDevices returns every device this discovery window has resolved so
// far, without triggering another poll.
func (b *Backend) FoundDevices() []*backend.DeviceInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*backend.DeviceInfo, len(b.found))
	copy(out, b.found)
	return out
}

// NeedsRefresh always returns false: this backend has no hot-plug
// detection. Discovery progress is reported by IsRefreshingList.
func (b *Backend) NeedsRefresh() bool {
	return false
}

func (b *Backend) IsRefreshingList() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inflight
}

// PollListUpdates drains whatever SSDP responses have arrived without
// blocking, following up Sony-Imaging hits with an HTTP GET + XML parse of
// the device description document, and closes the discovery socket once
// the 10-second window elapses.
func (b *Backend) PollListUpdates() ([]*backend.DeviceInfo, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, nil
	}

	var newly []*backend.DeviceInfo
	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			break
		}
		if info, ok := parseSSDPResponse(buf[:n]); ok {
			newly = append(newly, info)
		}
	}

	b.mu.Lock()
	b.found = append(b.found, newly...)
	expired := timeIsAfter(b.deadline)
	if expired {
		conn.Close()
		b.conn = nil
		b.inflight = false
	}
	b.mu.Unlock()

	return newly, nil
}

// parseSSDPResponse extracts LOCATION/USN from one SSDP datagram, filters
// to Sony Imaging devices, and fetches the descriptor document.
func parseSSDPResponse(datagram []byte) (*backend.DeviceInfo, bool) {
	location, usn := "", ""
	sc := bufio.NewScanner(strings.NewReader(string(datagram)))
	for sc.Scan() {
		line := sc.Text()
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "location:"):
			location = strings.TrimSpace(line[len("location:"):])
		case strings.HasPrefix(lower, "usn:"):
			usn = strings.TrimSpace(line[len("usn:"):])
		}
	}
	if location == "" || usn == "" {
		return nil, false
	}
	if !strings.Contains(usn, ssdpUSNMarker) {
		return nil, false
	}

	model, manufacturer, host, err := fetchDeviceDescription(location)
	if err != nil || model == "" {
		return nil, false
	}

	return &backend.DeviceInfo{
		Backend:        backend.TypeIP,
		Manufacturer:   manufacturer,
		Product:        model,
		NetworkAddress: host,
		Handle:         host,
	}, true
}

// fetchDeviceDescription GETs the SSDP LOCATION URL and streams its XML
// body looking for <friendlyName> and <manufacturer> (spec §4.3).
func fetchDeviceDescription(location string) (model, manufacturer, host string, err error) {
	client := http.Client{Timeout: httpGetTimeout}
	resp, err := client.Get(location)
	if err != nil {
		return "", "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("ptpip: device description GET returned %d", resp.StatusCode)
	}

	model, manufacturer, err = decodeDeviceDescription(resp.Body)
	if err != nil {
		return "", "", "", err
	}

	u, err := parseHost(location)
	if err != nil {
		return "", "", "", err
	}
	return model, manufacturer, u, nil
}

func decodeDeviceDescription(r io.Reader) (model, manufacturer string, err error) {
	dec := xml.NewDecoder(r)
	var currentTag string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			currentTag = t.Name.Local
		case xml.CharData:
			switch currentTag {
			case "friendlyName":
				model = strings.TrimSpace(string(t))
			case "manufacturer":
				manufacturer = strings.TrimSpace(string(t))
			}
		case xml.EndElement:
			currentTag = ""
		}
		if model != "" && manufacturer != "" {
			break
		}
	}
	return model, manufacturer, nil
}

func parseHost(rawURL string) (string, error) {
	const schemeSep = "://"
	i := strings.Index(rawURL, schemeSep)
	if i == -1 {
		return "", fmt.Errorf("ptpip: malformed location url %q", rawURL)
	}
	rest := rawURL[i+len(schemeSep):]
	if j := strings.IndexAny(rest, "/:"); j != -1 {
		rest = rest[:j]
	}
	return rest, nil
}

func (b *Backend) OpenDevice(info *backend.DeviceInfo) (*backend.Device, error) {
	host, ok := info.Handle.(string)
	if !ok {
		return nil, fmt.Errorf("ptpip: DeviceInfo.Handle is not a host string")
	}
	tr, err := Dial(host)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.opened[info] = tr
	b.mu.Unlock()
	return &backend.Device{Info: info, Transport: tr}, nil
}

func (b *Backend) CloseDevice(dev *backend.Device) error {
	b.mu.Lock()
	delete(b.opened, dev.Info)
	b.mu.Unlock()
	return dev.Transport.Close()
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	var firstErr error
	for info, tr := range b.opened {
		if err := tr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.opened, info)
	}
	return firstErr
}

func nowPlus(d time.Duration) time.Time { return time.Now().Add(d) }
func timeIsAfter(t time.Time) bool      { return time.Now().After(t) }
