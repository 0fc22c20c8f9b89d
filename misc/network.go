package misc

import "net"

// Nothing is the request or reply type of RPC methods that carry no data.
type Nothing struct{}

// GetLocalAddress returns the IPv4 address of the first non-loopback interface that is up.
// Machines without one fall back to the loopback address.
func GetLocalAddress() string {
	networkInterfaces, err := net.Interfaces()
	if err != nil {
		return "127.0.0.1"
	}

	for _, elt := range networkInterfaces {
		if elt.Flags&net.FlagLoopback != 0 || elt.Flags&net.FlagUp == 0 {
			continue
		}
		addresses, err := elt.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addresses {
			if ip, ok := addr.(*net.IPNet); ok {
				if ip4 := ip.IP.To4(); len(ip4) == net.IPv4len {
					return ip4.String()
				}
			}
		}
	}
	return "127.0.0.1"
}
