package repository

import (
	"database/sql"
	"testing"
)

// IntegrationDB exposes the container database to the repository_test package
func IntegrationDB() *sql.DB {
	return testDB
}

// ResetTables empties every table between integration tests
func ResetTables(t *testing.T) {
	truncateAll(t)
}
