//go:build linux

package dhcp6

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// HardwareType returns the IANA-assigned hardware type for ifi, as found in
// Linux's /sys/class/net/<ifi>/type. The returned value matches the type
// field of an ARP header (RFC 826), used when generating a DUID-LL/DUID-LLT.
func HardwareType(ifi *net.Interface) (uint16, error) {
	b, err := os.ReadFile(fmt.Sprintf("/sys/class/net/%s/type", ifi.Name))
	if err != nil {
		return 0, ErrParseHardwareType
	}

	n, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 16)
	if err != nil {
		return 0, ErrParseHardwareType
	}

	return uint16(n), nil
}
