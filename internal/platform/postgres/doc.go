// Package postgres implements the persistence interfaces against
// PostgreSQL using database/sql with the pgx stdlib driver. It maps
// driver-level failures onto the store package's error vocabulary so
// callers never branch on PostgreSQL error codes.
package postgres
