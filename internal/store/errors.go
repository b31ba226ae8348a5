// Package store holds the MySQL-backed persistence for users, products,
// purchases and checkout sessions.
package store

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrNoReferenced   = 1452
)

// translate maps driver constraint violations onto the model sentinels.
func translate(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrDuplicateEntry:
			return fmt.Errorf("%w: %s", models.ErrDuplicateKey, myErr.Message)
		case mysqlErrNoReferenced:
			return fmt.Errorf("%w: %s", models.ErrNotFound, myErr.Message)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
