//go:build linux

package ssdpdisco

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
)

// openSocket opens a UDP socket bound to the given interface by device
// name (SO_BINDTODEVICE), with multicast TTL set per spec.
func openSocket(iface net.Interface) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error

			err := c.Control(func(fd uintptr) {
				if iface.Name == "" {
					return
				}

				ctrlErr = syscall.SetsockoptString(int(fd), syscall.SOL_SOCKET, syscall.SO_BINDTODEVICE, iface.Name)
			})
			if err != nil {
				return err
			}

			// A device that refuses SO_BINDTODEVICE (permissions,
			// loopback) still proceeds unbound rather than failing
			// discovery outright.
			_ = ctrlErr

			return nil
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
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
