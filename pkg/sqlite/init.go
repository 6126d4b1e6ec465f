package sqlite

import (
	"database/sql"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"
)

func init() {
	// Register sqlite-vec as an auto-extension so every connection opened by
	// this process has the vec0 virtual table module available.
	vec.Auto()

	sql.Register("sqlite3_vec", &sqlite3.SQLiteDriver{})
}
