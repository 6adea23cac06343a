// Package store defines shared persistence abstractions: the DBTX interface
// over *sql.DB / *sql.Tx and the common error vocabulary store
// implementations map database failures onto.
package store
