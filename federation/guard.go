package federation

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// forbiddenIP reports whether ip is not a public unicast address.
func forbiddenIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast()
}

// checkHost rejects host names that are known not to be public before any
// lookup happens. Names resolving to such addresses are caught by
// guardControl at dial time.
func checkHost(host string) error {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}

	if ip := net.ParseIP(host); ip != nil && forbiddenIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}

	return nil
}

// guardControl runs after name resolution, on the address actually
// dialed, so a public name pointing at a private address is refused too.
func guardControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}

	ip := net.ParseIP(host)
	if ip == nil || forbiddenIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}

	return nil
}

// newGuardedClient returns a client that only connects to public
// addresses. Proxies are not used since the proxy address would be the
// one checked.
func newGuardedClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   guardControl,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
