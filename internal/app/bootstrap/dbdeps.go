// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratagate/internal/app/store/kv"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	// Conn is the open credential store backend (mongo, redis or memory).
	Conn *kv.Conn
}
