package main

import (
	"os"

	"github.com/reusee/pg0/debugs"
	"github.com/reusee/pg0/pg0vm"
)

// dumpScope writes the root scope of unit as a CBOR snapshot.
func dumpScope(unit *pg0vm.Unit, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return debugs.WriteSnapshot(f, debugs.TakeSnapshot(unit.Scope, 0))
}
