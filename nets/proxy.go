package nets

import (
	"net/url"
	"os"

	"github.com/reusee/pg0/vars"
)

// ProxyAddrFromEnv returns the first proxy address set in the conventional environment variables.
func ProxyAddrFromEnv() string {
	return vars.FirstNonZero(
		os.Getenv("PG0_PROXY"),
		os.Getenv("ALL_PROXY"),
		os.Getenv("all_proxy"),
		os.Getenv("HTTP_PROXY"),
		os.Getenv("http_proxy"),
		os.Getenv("SOCKS_PROXY"),
		os.Getenv("socks_proxy"),
	)
}

// ParseProxyURL parses addr, accepting "socks" as an alias of "socks5". An empty addr gives nil.
func ParseProxyURL(addr string) (*url.URL, error) {
	if addr == "" {
		return nil, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "socks" {
		u.Scheme = "socks5"
	}
	return u, nil
}
