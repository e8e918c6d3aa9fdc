//go:build sqlite_vec && cgo

package graphdb

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// Importing this file (via the sqlite_vec build tag) registers the
// sqlite-vec extension as an auto-loadable extension on the same
// mattn/go-sqlite3 driver the Store uses, enabling the embedded ANN
// backend consumed by manifest.SQLiteVecSink. Grounded on
// theRebelliousNerd-codenerd's internal/store/init_vec.go, which wires the
// identical extension the identical way.
func init() {
	vec.Auto()
}
