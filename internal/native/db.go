// Package native holds foreign bindings reached through the native-call
// boundary. Database access lives here rather than in the evaluator: the
// language core only sees opaque i64 handles.
package native

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"hemlock/internal/value"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// dbRegistry maps handle IDs to open connections. Each Interp wires its own
// registry, so embedding runtimes never share connection tables.
type dbRegistry struct {
	mu    sync.Mutex
	conns map[int64]*sql.DB
}

// DBNatives returns the database binding set: dbOpen, dbExec, dbQuery and
// dbClose, sharing one connection registry.
func DBNatives() []*value.Native {
	reg := &dbRegistry{conns: map[int64]*sql.DB{}}
	return []*value.Native{
		reg.openNative(),
		reg.execNative(),
		reg.queryNative(),
		reg.closeNative(),
	}
}

func dbError(err error) *value.RuntimeError {
	return &value.RuntimeError{Kind: value.UserException, Payload: value.NewString("db: " + err.Error())}
}

func (r *dbRegistry) get(handle int64) (*sql.DB, *value.RuntimeError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	db, ok := r.conns[handle]
	if !ok {
		return nil, value.Errorf(value.NameError, "unknown database handle %d", handle)
	}
	return db, nil
}

// openNative: dbOpen(driver, dsn) -> i64 handle. Supported drivers are the
// compiled-in ones: "mysql", "postgres" and "sqlite3".
func (r *dbRegistry) openNative() *value.Native {
	return &value.Native{
		Name: "dbOpen",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 2 || args[0].Kind != value.KindString || args[1].Kind != value.KindString {
				return value.Value{}, value.Errorf(value.TypeError, "dbOpen needs (driver, dsn) strings")
			}
			driver := args[0].StringRef().Text()
			dsn := args[1].StringRef().Text()

			db, err := sql.Open(driver, dsn)
			if err != nil {
				return value.Value{}, dbError(err)
			}
			handle := ctx.NextHandleID()
			r.mu.Lock()
			r.conns[handle] = db
			r.mu.Unlock()
			slog.Debug("database opened", slog.String("driver", driver), slog.Int64("handle", handle))
			return value.I64(handle), nil
		},
	}
}

// execNative: dbExec(handle, query, params...) -> i64 rows affected.
func (r *dbRegistry) execNative() *value.Native {
	return &value.Native{
		Name: "dbExec",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			db, query, params, err := r.statementArgs("dbExec", args)
			if err != nil {
				return value.Value{}, err
			}
			res, execErr := db.Exec(query, params...)
			if execErr != nil {
				return value.Value{}, dbError(execErr)
			}
			affected, raErr := res.RowsAffected()
			if raErr != nil {
				affected = 0
			}
			return value.I64(affected), nil
		},
	}
}

// queryNative: dbQuery(handle, query, params...) -> array of row objects,
// one field per column.
func (r *dbRegistry) queryNative() *value.Native {
	return &value.Native{
		Name: "dbQuery",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			db, query, params, err := r.statementArgs("dbQuery", args)
			if err != nil {
				return value.Value{}, err
			}
			rows, qErr := db.Query(query, params...)
			if qErr != nil {
				return value.Value{}, dbError(qErr)
			}
			defer rows.Close()

			cols, cErr := rows.Columns()
			if cErr != nil {
				return value.Value{}, dbError(cErr)
			}

			var out []value.Value
			for rows.Next() {
				cells := make([]any, len(cols))
				ptrs := make([]any, len(cols))
				for i := range cells {
					ptrs[i] = &cells[i]
				}
				if sErr := rows.Scan(ptrs...); sErr != nil {
					for _, v := range out {
						value.Release(v)
					}
					return value.Value{}, dbError(sErr)
				}
				fields := make([]value.Field, len(cols))
				for i, col := range cols {
					fields[i] = value.Field{Name: col, Val: cellValue(cells[i])}
				}
				out = append(out, value.NewObject(fields))
			}
			if rErr := rows.Err(); rErr != nil {
				for _, v := range out {
					value.Release(v)
				}
				return value.Value{}, dbError(rErr)
			}
			return value.NewArray(out), nil
		},
	}
}

func (r *dbRegistry) closeNative() *value.Native {
	return &value.Native{
		Name: "dbClose",
		Fn: func(ctx value.CallContext, args ...value.Value) (value.Value, *value.RuntimeError) {
			if len(args) != 1 || !value.IsIntegerKind(args[0].Kind) {
				return value.Value{}, value.Errorf(value.TypeError, "dbClose needs a handle")
			}
			handle := args[0].Int
			r.mu.Lock()
			db, ok := r.conns[handle]
			delete(r.conns, handle)
			r.mu.Unlock()
			if !ok {
				return value.Value{}, value.Errorf(value.NameError, "unknown database handle %d", handle)
			}
			if err := db.Close(); err != nil {
				return value.Value{}, dbError(err)
			}
			return value.Null(), nil
		},
	}
}

func (r *dbRegistry) statementArgs(name string, args []value.Value) (*sql.DB, string, []any, *value.RuntimeError) {
	if len(args) < 2 || !value.IsIntegerKind(args[0].Kind) || args[1].Kind != value.KindString {
		return nil, "", nil, value.Errorf(value.TypeError, "%s needs (handle, query, params...)", name)
	}
	db, err := r.get(args[0].Int)
	if err != nil {
		return nil, "", nil, err
	}
	params := make([]any, len(args)-2)
	for i, a := range args[2:] {
		p, pErr := paramValue(a)
		if pErr != nil {
			return nil, "", nil, pErr
		}
		params[i] = p
	}
	return db, args[1].StringRef().Text(), params, nil
}

func paramValue(v value.Value) (any, *value.RuntimeError) {
	switch v.Kind {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		return v.AsBool(), nil
	case value.KindString:
		return v.StringRef().Text(), nil
	case value.KindF32, value.KindF64:
		return v.Float, nil
	case value.KindU64:
		return v.AsUint(), nil
	}
	if value.IsIntegerKind(v.Kind) {
		return v.Int, nil
	}
	return nil, value.Errorf(value.TypeError, "cannot bind %s as a query parameter", v.Kind)
}

func cellValue(cell any) value.Value {
	switch c := cell.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(c)
	case int64:
		return value.I64(c)
	case float64:
		return value.F64(c)
	case []byte:
		return value.NewString(string(c))
	case string:
		return value.NewString(c)
	}
	return value.NewString(fmt.Sprintf("%v", cell))
}
