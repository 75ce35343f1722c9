// Package ssdpdisco discovers Sony imaging devices on the LAN via SSDP
// M-SEARCH, one UDP socket per network interface.
package ssdpdisco

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	ssdpAddr    = "239.255.255.250:1900"
	serviceType = "urn:schemas-sony-com:service:ScalarWebAPI:1"
	multicastTTL = 2

	defaultTimeout = 2 * time.Second
	replyBufSize   = 1024
)

// Record is a Discovery Record: a mapping from lower-cased SSDP header
// name to value. Identity is the sorted tuple of its (name, value) pairs.
type Record map[string]string

// Key returns the sorted header tuple used as the record's identity and
// as the Device Cache lookup key.
func (r Record) Key() string {
	pairs := make([]string, 0, len(r))
	for k, v := range r {
		pairs = append(pairs, k+"="+v)
	}

	sort.Strings(pairs)

	return strings.Join(pairs, "&")
}

// Valid reports whether the record carries a location and a Sony
// imaging-device server string, per spec.
func (r Record) Valid() bool {
	return r["location"] != "" && strings.Contains(r["server"], "SonyImagingDevice")
}

// Discoverer performs per-interface SSDP M-SEARCH queries.
type Discoverer struct {
	Timeout time.Duration
}

// New returns a Discoverer with the default 2s per-socket timeout.
func New() *Discoverer {
	return &Discoverer{Timeout: defaultTimeout}
}

// Query sends one M-SEARCH datagram per network interface and collects
// unique Discovery Records from best-effort replies. Timeouts, I/O
// errors, and malformed replies on a given socket contribute zero
// records from that socket — the operation as a whole never fails.
func (d *Discoverer) Query(ctx context.Context) ([]Record, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ifaces, err := net.Interfaces()
	if err != nil || len(ifaces) == 0 {
		// Fall back to a single unbound socket so discovery still works
		// in environments where enumerating interfaces fails.
		ifaces = []net.Interface{{Name: ""}}
	}

	results := make([][]Record, len(ifaces))

	g, gctx := errgroup.WithContext(ctx)

	for i, iface := range ifaces {
		i, iface := i, iface

		g.Go(func() error {
			recs, err := queryInterface(gctx, iface, timeout)
			if err != nil {
				// Per-interface failures are lossy by design; never
				// propagate them as a Query failure.
				return nil
			}

			results[i] = recs

			return nil
		})
	}

	_ = g.Wait()

	seen := make(map[string]Record)

	for _, recs := range results {
		for _, r := range recs {
			if !r.Valid() {
				continue
			}

			seen[r.Key()] = r
		}
	}

	out := make([]Record, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}

	return out, nil
}

func queryInterface(ctx context.Context, iface net.Interface, timeout time.Duration) ([]Record, error) {
	conn, err := openSocket(iface)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if pc, ok := conn.(*net.UDPConn); ok {
		_ = pc.SetReadBuffer(replyBufSize)
	}

	raddr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, err
	}

	req := buildMSearchRequest()

	if _, err := conn.WriteTo(req, raddr); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	_ = conn.SetReadDeadline(deadline)

	buf := make([]byte, replyBufSize)

	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		return nil, err
	}

	rec, err := parseResponse(buf[:n])
	if err != nil {
		return nil, err
	}

	return []Record{rec}, nil
}

func buildMSearchRequest() []byte {
	var sb strings.Builder

	sb.WriteString("M-SEARCH * HTTP/1.1\r\n")
	sb.WriteString("HOST: " + ssdpAddr + "\r\n")
	sb.WriteString(`MAN: "ssdp:discover"` + "\r\n")
	sb.WriteString("MX: 1\r\n")
	sb.WriteString("ST: " + serviceType + "\r\n")
	sb.WriteString("\r\n")

	return []byte(sb.String())
}

// parseResponse parses an HTTP-style SSDP reply: the first line (the
// status line) is ignored; subsequent "Name: Value" lines are
// lower-cased on the name.
func parseResponse(data []byte) (Record, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("ssdpdisco: empty reply")
	}

	rec := make(Record)

	for _, line := range lines[1:] {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])

		if name == "" {
			continue
		}

		rec[name] = value
	}

	return rec, nil
}
