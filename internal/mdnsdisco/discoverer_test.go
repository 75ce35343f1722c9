package mdnsdisco

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestToFoundUsesDefaultPathWithoutTXTOverride(t *testing.T) {
	e := &mdns.ServiceEntry{
		Name:   "ILCE-7RM4._scalar-web._tcp.local.",
		AddrV4: net.ParseIP("192.168.122.10"),
		Port:   8080,
	}

	f, ok := toFound(e)
	if !ok {
		t.Fatal("expected ok=true")
	}

	if f.Location != "http://192.168.122.10:8080/description.xml" {
		t.Errorf("unexpected location: %q", f.Location)
	}
}

func TestToFoundHonorsPathTXTRecord(t *testing.T) {
	e := &mdns.ServiceEntry{
		Name:       "ILCE-7RM4._scalar-web._tcp.local.",
		AddrV4:     net.ParseIP("192.168.122.10"),
		Port:       8080,
		InfoFields: []string{"path=/sony/description.xml"},
	}

	f, ok := toFound(e)
	if !ok {
		t.Fatal("expected ok=true")
	}

	if f.Location != "http://192.168.122.10:8080/sony/description.xml" {
		t.Errorf("unexpected location: %q", f.Location)
	}
}

func TestToFoundRejectsZeroPort(t *testing.T) {
	e := &mdns.ServiceEntry{Name: "x", AddrV4: net.ParseIP("192.168.122.10")}

	if _, ok := toFound(e); ok {
		t.Error("expected ok=false for zero port")
	}
}
