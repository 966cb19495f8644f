package pg0vm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Library is a set of native functions loaded by #library or #import.
type Library struct {
	Name  string
	Funcs map[string]NativeFunc
	Close func() error
}

// Func looks up a function case-insensitively.
func (l *Library) Func(name string) (NativeFunc, bool) {
	if fn, ok := l.Funcs[name]; ok {
		return fn, true
	}
	for key, fn := range l.Funcs {
		if strings.EqualFold(key, name) {
			return fn, true
		}
	}
	return NativeFunc{}, false
}

type LibraryFactory func() (*Library, error)

var (
	librariesLock sync.RWMutex
	libraries     = make(map[string]LibraryFactory)
)

func RegisterLibrary(name string, factory LibraryFactory) {
	librariesLock.Lock()
	defer librariesLock.Unlock()
	key := strings.ToLower(name)
	if _, ok := libraries[key]; ok {
		panic(fmt.Errorf("library %s already registered", name))
	}
	libraries[key] = factory
}

// OpenLibrary instantiates a registered library.
// The name may carry a directory or a .dll/.so suffix, both ignored.
func OpenLibrary(name string) (*Library, error) {
	key := libraryKey(name)
	librariesLock.RLock()
	factory, ok := libraries[key]
	librariesLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("library not found: %s", name)
	}
	lib, err := factory()
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", name, err)
	}
	if lib.Name == "" {
		lib.Name = key
	}
	return lib, nil
}

func libraryKey(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	for _, ext := range []string{".dll", ".so", ".dylib"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func RegisteredLibraries() []string {
	librariesLock.RLock()
	defer librariesLock.RUnlock()
	ret := make([]string, 0, len(libraries))
	for name := range libraries {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
