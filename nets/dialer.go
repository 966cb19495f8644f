package nets

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"golang.org/x/net/proxy"
)

type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

type DialerFunc func(context.Context, string, string) (net.Conn, error)

var _ Dialer = DialerFunc(nil)

func (d DialerFunc) DialContext(ctx context.Context, network string, addr string) (net.Conn, error) {
	return d(ctx, network, addr)
}

func (d DialerFunc) Dial(network string, addr string) (net.Conn, error) {
	return d(context.Background(), network, addr)
}

// NewDialer dials local and private addresses directly and everything else through the socks proxy u.
// A nil u dials directly.
func NewDialer(u *url.URL) (Dialer, error) {
	direct := &net.Dialer{}
	if u == nil {
		return direct, nil
	}
	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, err
	}
	proxyDialer, ok := d.(Dialer)
	if !ok {
		return nil, fmt.Errorf("proxy %s: no context dialer", u.Redacted())
	}
	return DialerFunc(func(ctx context.Context, network, addr string) (net.Conn, error) {
		if IsLocalAddr(addr) {
			return direct.DialContext(ctx, network, addr)
		}
		return proxyDialer.DialContext(ctx, network, addr)
	}), nil
}

// IsLocalAddr reports whether addr resolves to a loopback or private address.
// Unresolvable hosts count as remote.
func IsLocalAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return false
	}
	for _, ip := range ips {
		if ip.IsLoopback() || ip.IsPrivate() {
			return true
		}
	}
	return false
}
