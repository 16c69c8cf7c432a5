// Package testutil provides in-memory stores with the same contracts as the
// PostgreSQL repositories, for service and handler tests.
package testutil
