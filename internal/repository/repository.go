// Package repository contains the SQL persistence layer. Each repository
// wraps *sql.DB; operations that must commit together take an explicit
// *sql.Tx so the service layer owns the atomic unit boundary.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist or is not visible to the
// requesting owner.
var ErrNotFound = errors.New("record not found")
