// Package http lets scripts make HTTP requests through the proxy-aware client of nets.
package http

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/reusee/pg0/nets"
	"github.com/reusee/pg0/pg0vm"
	"github.com/samber/lo"
)

const (
	timeout = 30 * time.Second
	// maxBody bounds a response body read into a script string.
	maxBody = 64 << 20
)

func init() {
	pg0vm.RegisterLibrary("http", New)
}

type library struct {
	client *http.Client
}

func New() (*pg0vm.Library, error) {
	client, err := nets.NewHTTPClient(nets.ProxyAddrFromEnv(), timeout)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client), nil
}

func NewWithClient(client *http.Client) *pg0vm.Library {
	l := &library{
		client: client,
	}
	return &pg0vm.Library{
		Name: "http",
		Funcs: map[string]pg0vm.NativeFunc{
			"http_get":     {Name: "http_get", Func: l.get},
			"http_post":    {Name: "http_post", Func: l.post},
			"http_request": {Name: "http_request", Func: l.request},
		},
		Close: func() error {
			client.CloseIdleConnections()
			return nil
		},
	}
}

func contextOf(ctx *pg0vm.Context) context.Context {
	if ctx.Host != nil && ctx.Host.Context != nil {
		return ctx.Host.Context
	}
	return context.Background()
}

type response struct {
	status int
	header http.Header
	body   string
}

func (l *library) do(ctx *pg0vm.Context, method string, url string, body string, header http.Header) (*response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(contextOf(ctx), method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	ctx.Logger().Debug("http request",
		"method", method,
		"url", url,
	)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return &response{
		status: resp.StatusCode,
		header: resp.Header,
		body:   string(data),
	}, nil
}

// bodyOf returns the body of a successful response and fails otherwise.
func bodyOf(method string, url string, resp *response) (*pg0vm.Value, error) {
	if resp.status < 200 || resp.status > 299 {
		return nil, fmt.Errorf("%s %s: %d %s", method, url, resp.status, http.StatusText(resp.status))
	}
	return pg0vm.NewString(resp.body), nil
}

func (l *library) get(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	url, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	resp, err := l.do(ctx, http.MethodGet, url.String(), "", nil)
	if err != nil {
		return nil, err
	}
	return bodyOf(http.MethodGet, url.String(), resp)
}

func (l *library) post(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	if len(args) < 2 {
		return nil, pg0vm.ErrArgumentCount
	}
	url := args[0].String()
	contentType := "text/plain; charset=utf-8"
	if len(args) > 2 {
		contentType = args[2].String()
	}
	resp, err := l.do(ctx, http.MethodPost, url, args[1].String(), http.Header{
		"Content-Type": {contentType},
	})
	if err != nil {
		return nil, err
	}
	return bodyOf(http.MethodPost, url, resp)
}

// request returns {"status": code, "body": text, "headers": {name: value}} for any status.
// The optional fourth argument is a keyed array of request headers.
func (l *library) request(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	if len(args) < 2 {
		return nil, pg0vm.ErrArgumentCount
	}
	method := strings.ToUpper(args[0].String())
	var body string
	if len(args) > 2 {
		body = args[2].String()
	}
	header := make(http.Header)
	if len(args) > 3 && args[3].Type == pg0vm.TypeArray {
		for _, s := range args[3].Array {
			if s.Name != "" {
				header.Add(s.Name, s.Value.String())
			}
		}
	}
	resp, err := l.do(ctx, method, args[1].String(), body, header)
	if err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(resp.header))
	headers := pg0vm.NewArray(lo.Map(names, func(name string, _ int) *pg0vm.Slot {
		return &pg0vm.Slot{
			Name:  name,
			Value: pg0vm.NewString(resp.header.Get(name)),
		}
	})...)
	return pg0vm.NewArray(
		&pg0vm.Slot{Name: "status", Value: pg0vm.NewInt(int64(resp.status))},
		&pg0vm.Slot{Name: "body", Value: pg0vm.NewString(resp.body)},
		&pg0vm.Slot{Name: "headers", Value: headers},
	), nil
}
