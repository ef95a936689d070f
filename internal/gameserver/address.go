package gameserver

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

var (
	loopback = netip.AddrFrom4([4]byte{127, 0, 0, 1})

	// подменяется в тестах
	lookupIP = net.LookupIP
)

// Address is one advertised host of a multi-homed GameServer: clients whose
// address falls into Subnet are sent Host.
type Address struct {
	Subnet netip.Prefix
	Host   string
}

// ParseAddress parses a subnet ("10.0.0.0/8", "192.168.1.5" or "0.0.0.0/0")
// and pairs it with an advertised host.
func ParseAddress(subnet, host string) (Address, error) {
	subnet = strings.TrimSpace(subnet)
	host = strings.TrimSpace(host)
	if host == "" {
		return Address{}, fmt.Errorf("empty host for subnet %q", subnet)
	}

	var prefix netip.Prefix
	if strings.Contains(subnet, "/") {
		p, err := netip.ParsePrefix(subnet)
		if err != nil {
			return Address{}, fmt.Errorf("parsing subnet %q: %w", subnet, err)
		}
		prefix = p.Masked()
	} else {
		addr, err := netip.ParseAddr(subnet)
		if err != nil {
			return Address{}, fmt.Errorf("parsing subnet %q: %w", subnet, err)
		}
		addr = addr.Unmap()
		prefix = netip.PrefixFrom(addr, addr.BitLen())
	}

	return Address{Subnet: prefix, Host: host}, nil
}

// Contains reports whether ip belongs to the subnet.
func (a Address) Contains(ip netip.Addr) bool {
	return a.Subnet.Contains(ip.Unmap())
}

func (a Address) String() string {
	return a.Host + "/" + a.Subnet.String()
}

// ResolveIPv4 turns an advertised host (literal or DNS name) into the
// four bytes sent in ServerList. Unresolvable hosts fall back to 127.0.0.1.
func ResolveIPv4(host string) [4]byte {
	if host == "" {
		return loopback.As4()
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if addr = addr.Unmap(); addr.Is4() {
			return addr.As4()
		}
		return loopback.As4()
	}

	ips, err := lookupIP(host)
	if err != nil {
		return loopback.As4()
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return [4]byte(v4)
		}
	}
	return loopback.As4()
}
