// Package testutil provides helpers shared by package tests.
package testutil

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// ArrayConverter passes ClickHouse Array(String) values through unchanged, the
// way clickhouse-go hands them to Scan, and defers everything else to the
// database/sql default converter.
var ArrayConverter driver.ValueConverter = arrayConverter{}

type arrayConverter struct{}

func (arrayConverter) ConvertValue(v interface{}) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// NewClickHouseMock returns a sqlmock database whose rows may carry []string
// columns. Build rows with mock.NewRows so they share the converter.
func NewClickHouseMock(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(ArrayConverter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
