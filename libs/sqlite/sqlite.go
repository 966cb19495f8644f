// Package sqlite exposes SQLite databases to scripts through integer handles.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/reusee/pg0/pg0vm"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

func init() {
	pg0vm.RegisterLibrary("sqlite", New)
}

// conn is the part of a database or a transaction that exec and query use.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// handle is an open database, or a transaction begun on the database handle parent.
type handle struct {
	db     *sql.DB
	tx     *sql.Tx
	parent int64
}

func (h *handle) conn() conn {
	if h.tx != nil {
		return h.tx
	}
	return h.db
}

func (h *handle) close() error {
	if h.tx != nil {
		err := h.tx.Rollback()
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return err
	}
	return h.db.Close()
}

type library struct {
	handles map[int64]*handle
	next    int64
}

// New creates a library instance with its own handle table.
// Closing the library closes every database still open.
func New() (*pg0vm.Library, error) {
	l := &library{
		handles: make(map[int64]*handle),
		next:    1,
	}
	return &pg0vm.Library{
		Name: "sqlite",
		Funcs: map[string]pg0vm.NativeFunc{
			"sqlite_open":  {Name: "sqlite_open", Func: l.open},
			"sqlite_exec":  {Name: "sqlite_exec", Func: l.exec},
			"sqlite_query": {Name: "sqlite_query", Func: l.query},
			"sqlite_close": {Name: "sqlite_close", Func: l.close},

			"sqlite_begin":    {Name: "sqlite_begin", Func: l.begin},
			"sqlite_commit":   {Name: "sqlite_commit", Func: l.commit},
			"sqlite_rollback": {Name: "sqlite_rollback", Func: l.rollback},
		},
		Close: l.closeAll,
	}, nil
}

func contextOf(ctx *pg0vm.Context) context.Context {
	if ctx.Host != nil && ctx.Host.Context != nil {
		return ctx.Host.Context
	}
	return context.Background()
}

func (l *library) open(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	path, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path.String())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(contextOf(ctx)); err != nil {
		db.Close()
		return nil, err
	}
	id := l.add(&handle{db: db})
	ctx.Logger().Debug("sqlite open",
		"path", path.String(),
		"handle", id,
	)
	return pg0vm.NewInt(id), nil
}

func (l *library) add(h *handle) int64 {
	id := l.next
	l.next++
	l.handles[id] = h
	return id
}

func (l *library) handle(v *pg0vm.Value) (int64, *handle, error) {
	id := v.ToInt()
	h, ok := l.handles[id]
	if !ok {
		return id, nil, fmt.Errorf("invalid database handle: %d", id)
	}
	return id, h, nil
}

func (l *library) conn(args []*pg0vm.Value) (conn, error) {
	if len(args) < 2 {
		return nil, pg0vm.ErrArgumentCount
	}
	_, h, err := l.handle(args[0])
	if err != nil {
		return nil, err
	}
	return h.conn(), nil
}

// params converts an optional array argument to query parameters.
func params(args []*pg0vm.Value) []any {
	if len(args) < 3 {
		return nil
	}
	v := args[2]
	if v.Type != pg0vm.TypeArray {
		return []any{native(v)}
	}
	return lo.Map(v.Array, func(s *pg0vm.Slot, _ int) any {
		if s.Name != "" {
			return sql.Named(s.Name, native(s.Value))
		}
		return native(s.Value)
	})
}

func native(v *pg0vm.Value) any {
	switch v.Type {
	case pg0vm.TypeFloat:
		return v.Float
	case pg0vm.TypeString:
		return v.Str
	case pg0vm.TypeArray:
		return pg0vm.FormatArray(v.Array, false)
	}
	return v.Int
}

func (l *library) exec(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	c, err := l.conn(args)
	if err != nil {
		return nil, err
	}
	res, err := c.ExecContext(contextOf(ctx), args[1].String(), params(args)...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	return pg0vm.NewInt(n), nil
}

func (l *library) query(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	c, err := l.conn(args)
	if err != nil {
		return nil, err
	}
	rows, err := c.QueryContext(contextOf(ctx), args[1].String(), params(args)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	ret := pg0vm.NewArray()
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := pg0vm.NewArray()
		for i, v := range dest {
			row.Array = append(row.Array, &pg0vm.Slot{
				Name:  cols[i],
				Value: fromColumn(v),
			})
		}
		ret.Array = append(ret.Array, &pg0vm.Slot{Value: row})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func fromColumn(v any) *pg0vm.Value {
	switch v := v.(type) {
	case nil:
		return pg0vm.NewInt(0)
	case int64:
		return pg0vm.NewInt(v)
	case float64:
		return pg0vm.NewFloat(v)
	case bool:
		return pg0vm.NewBool(v)
	case string:
		return pg0vm.NewString(v)
	case []byte:
		return pg0vm.NewString(string(v))
	}
	return pg0vm.NewString(fmt.Sprint(v))
}

// close releases a database handle, or rolls back a transaction handle.
// Transactions begun on a closed database are rolled back with it.
func (l *library) close(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	id, h, err := l.handle(v)
	if err != nil {
		return pg0vm.NewInt(0), nil
	}
	var errs []error
	if h.tx == nil {
		for _, txID := range l.sortedIDs() {
			if l.handles[txID].parent == id {
				errs = append(errs, l.handles[txID].close())
				delete(l.handles, txID)
			}
		}
	}
	delete(l.handles, id)
	errs = append(errs, h.close())
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return pg0vm.NewInt(1), nil
}

func (l *library) begin(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	id, h, err := l.handle(v)
	if err != nil {
		return nil, err
	}
	if h.tx != nil {
		return nil, fmt.Errorf("handle %d is already a transaction", id)
	}
	tx, err := h.db.BeginTx(contextOf(ctx), nil)
	if err != nil {
		return nil, err
	}
	return pg0vm.NewInt(l.add(&handle{
		db:     h.db,
		tx:     tx,
		parent: id,
	})), nil
}

func (l *library) finish(ctx *pg0vm.Context, args []*pg0vm.Value, commit bool) (*pg0vm.Value, error) {
	v, err := ctx.Arg(args, 0)
	if err != nil {
		return nil, err
	}
	id, h, err := l.handle(v)
	if err != nil {
		return nil, err
	}
	if h.tx == nil {
		return nil, fmt.Errorf("handle %d is not a transaction", id)
	}
	delete(l.handles, id)
	if commit {
		err = h.tx.Commit()
	} else {
		err = h.tx.Rollback()
	}
	if err != nil {
		return nil, err
	}
	return pg0vm.NewInt(1), nil
}

func (l *library) commit(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	return l.finish(ctx, args, true)
}

func (l *library) rollback(ctx *pg0vm.Context, args []*pg0vm.Value) (*pg0vm.Value, error) {
	return l.finish(ctx, args, false)
}

// sortedIDs lists handles newest first, so transactions come before their databases.
func (l *library) sortedIDs() []int64 {
	ids := make([]int64, 0, len(l.handles))
	for id := range l.handles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] > ids[j]
	})
	return ids
}

func (l *library) closeAll() error {
	var errs []error
	for _, id := range l.sortedIDs() {
		if err := l.handles[id].close(); err != nil {
			errs = append(errs, err)
		}
		delete(l.handles, id)
	}
	return errors.Join(errs...)
}
