package services

import (
	"net"
	"strings"
)

// AnonymizeIP zeroes the host part of addr: the last octet for IPv4 and the
// last 80 bits for IPv6. Ports are stripped. Unparseable input is returned as is.
func AnonymizeIP(addr string) string {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	ip := net.ParseIP(host)
	if ip == nil {
		return addr
	}

	if v4 := ip.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(24, 32))
		return masked.String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}

// ClientIP strips the port from a RemoteAddr-style value.
func ClientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
