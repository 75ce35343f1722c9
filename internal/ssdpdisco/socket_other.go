//go:build !linux && !darwin

package ssdpdisco

import (
	"net"

	"golang.org/x/net/ipv4"
)

// openSocket opens an unbound UDP socket. Platforms without a
// bind-to-interface primitive rely on routing to pick the egress
// interface; discovery still works, just without per-NIC isolation.
func openSocket(_ net.Interface) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}

	if udp, ok := conn.(*net.UDPConn); ok {
		p := ipv4.NewPacketConn(udp)
		_ = p.SetMulticastTTL(multicastTTL)
		_ = p.SetTTL(multicastTTL)
	}

	return conn, nil
}
