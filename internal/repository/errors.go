// Package repository contains the MySQL implementations of the catalog and
// credential stores. Callers see the sentinel errors of the catalog and auth
// packages, never driver errors, for the cases they are expected to handle.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY, raised when a unique key is violated.
const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a unique key violation.
func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
