// Package postgres provides the PostgreSQL implementation of the run
// history store defined in the internal/store package. It handles query
// execution and the mapping between run records and database rows; the
// connection itself is opened and owned by the caller.
package postgres
