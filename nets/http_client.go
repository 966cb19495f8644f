package nets

import (
	"net/http"
	"net/url"
	"time"
)

// NewHTTPClient builds a client for proxyAddr.
// http and https proxies go through the transport; socks proxies through the dialer.
func NewHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	u, err := ParseProxyURL(proxyAddr)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	switch {
	case u == nil:
	case u.Scheme == "http" || u.Scheme == "https":
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			if IsLocalAddr(req.URL.Host) {
				return nil, nil
			}
			return u, nil
		}
	default:
		dialer, err := NewDialer(u)
		if err != nil {
			return nil, err
		}
		transport.DialContext = dialer.DialContext
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
