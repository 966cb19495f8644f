package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reusee/pg0/pg0vm"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hello":
			w.Header().Set("X-Unit", "main.pg0")
			io.WriteString(w, "hello")
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			io.WriteString(w, r.Method+" "+r.Header.Get("Content-Type")+" "+r.Header.Get("X-Token")+" "+string(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTP(t *testing.T) {
	server := newServer(t)
	lib := NewWithClient(server.Client())
	defer lib.Close()
	ctx := &pg0vm.Context{
		Host: &pg0vm.Host{
			Context: t.Context(),
		},
	}
	call := func(name string, args ...*pg0vm.Value) (*pg0vm.Value, error) {
		t.Helper()
		fn, ok := lib.Func(name)
		if !ok {
			t.Fatalf("%s not found", name)
		}
		return fn.Func(ctx, args)
	}

	ret, err := call("http_get", pg0vm.NewString(server.URL+"/hello"))
	if err != nil {
		t.Fatal(err)
	}
	if ret.Str != "hello" {
		t.Fatalf("got %q", ret.Str)
	}

	if _, err := call("http_get", pg0vm.NewString(server.URL+"/missing")); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("got %v", err)
	}

	ret, err = call("http_post",
		pg0vm.NewString(server.URL+"/echo"),
		pg0vm.NewString("a=1"),
		pg0vm.NewString("application/x-www-form-urlencoded"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if ret.Str != "POST application/x-www-form-urlencoded  a=1" {
		t.Fatalf("got %q", ret.Str)
	}

	if _, err := call("http_post", pg0vm.NewString(server.URL)); err != pg0vm.ErrArgumentCount {
		t.Fatalf("got %v", err)
	}

	ret, err = call("http_request",
		pg0vm.NewString("put"),
		pg0vm.NewString(server.URL+"/echo"),
		pg0vm.NewString("x"),
		pg0vm.NewArray(&pg0vm.Slot{Name: "X-Token", Value: pg0vm.NewString("t1")}),
	)
	if err != nil {
		t.Fatal(err)
	}
	status := ret.Lookup("status")
	body := ret.Lookup("body")
	if status == nil || status.Value.Int != 200 || body == nil || body.Value.Str != "PUT  t1 x" {
		t.Fatalf("got %s", ret.Display(false))
	}

	ret, err = call("http_request", pg0vm.NewString("GET"), pg0vm.NewString(server.URL+"/hello"))
	if err != nil {
		t.Fatal(err)
	}
	headers := ret.Lookup("headers")
	if headers == nil {
		t.Fatalf("got %s", ret.Display(false))
	}
	unit := headers.Value.Lookup("X-Unit")
	if unit == nil || unit.Value.Str != "main.pg0" {
		t.Fatalf("got %s", ret.Display(false))
	}

	ret, err = call("http_request", pg0vm.NewString("GET"), pg0vm.NewString(server.URL+"/missing"))
	if err != nil {
		t.Fatal(err)
	}
	if status := ret.Lookup("status"); status == nil || status.Value.Int != 404 {
		t.Fatalf("got %s", ret.Display(false))
	}
}

func TestRegistered(t *testing.T) {
	lib, err := pg0vm.OpenLibrary("http")
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Close()
	if _, ok := lib.Func("HTTP_GET"); !ok {
		t.Fatal("http_get not found")
	}
}
