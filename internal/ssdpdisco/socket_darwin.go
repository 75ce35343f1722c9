//go:build darwin

package ssdpdisco

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// openSocket opens a UDP socket bound to the given interface via
// IP_BOUND_IF, with multicast TTL set per spec.
func openSocket(iface net.Interface) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			if iface.Index == 0 {
				return nil
			}

			var ctrlErr error

			err := c.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_BOUND_IF, iface.Index)
			})
			if err != nil {
				return err
			}

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
