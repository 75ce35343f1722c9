// Package mdnsdisco supplements SSDP discovery with an mDNS/Bonjour
// lookup for Sony imaging devices that advertise a
// _scalar-web._tcp.local. service instead of (or alongside) SSDP.
package mdnsdisco

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	serviceType        = "_scalar-web._tcp"
	defaultLookupTime  = 2 * time.Second
	defaultDescription = "/description.xml"
)

// Found is one mDNS-advertised device description location, shaped to
// plug into the same Build(ctx, location, ...) path as an SSDP record.
type Found struct {
	Name     string
	Location string
}

// Lookup queries the LAN for _scalar-web._tcp services and returns a
// description-document URL per responder. A TXT record entry of the
// form "path=/foo.xml" overrides the default description path; a
// missing or empty response is not an error, matching the
// never-fatal posture of SSDP discovery.
func Lookup(ctx context.Context, timeout time.Duration) ([]Found, error) {
	if timeout <= 0 {
		timeout = defaultLookupTime
	}

	entries := make(chan *mdns.ServiceEntry, 32)

	queryDone := make(chan error, 1)

	go func() {
		queryDone <- mdns.Query(&mdns.QueryParam{
			Service: serviceType,
			Domain:  "local.",
			Timeout: timeout,
			Entries: entries,
		})
	}()

	var out []Found

	deadline := time.After(timeout + time.Second)

collect:
	for {
		select {
		case <-ctx.Done():
			break collect
		case <-deadline:
			break collect
		case e, ok := <-entries:
			if !ok {
				break collect
			}

			if f, ok := toFound(e); ok {
				out = append(out, f)
			}
		}
	}

	if err := <-queryDone; err != nil {
		return out, fmt.Errorf("mdnsdisco: query failed: %w", err)
	}

	return out, nil
}

func toFound(e *mdns.ServiceEntry) (Found, bool) {
	if e == nil || e.Port == 0 {
		return Found{}, false
	}

	host := e.Host
	if e.AddrV4 != nil {
		host = e.AddrV4.String()
	}

	if host == "" {
		return Found{}, false
	}

	path := defaultDescription

	for _, field := range e.InfoFields {
		if strings.HasPrefix(field, "path=") {
			path = strings.TrimPrefix(field, "path=")
			break
		}
	}

	return Found{
		Name:     strings.TrimSuffix(e.Name, "."),
		Location: fmt.Sprintf("http://%s:%d%s", host, e.Port, path),
	}, true
}
