package database

import (
	"fmt"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/storyteller/schemas"
)

func TestMigrate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		migrations fstest.MapFS
		setupMock  func(mock sqlmock.Sqlmock)
		errMsg     string
	}{
		{
			name:       "missing migrations directory",
			migrations: fstest.MapFS{},
			setupMock:  func(mock sqlmock.Sqlmock) {},
			errMsg:     "iofs.New(migrations)",
		},
		{
			name: "unreachable database",
			migrations: fstest.MapFS{
				"migrations/001_create_table.up.sql": {Data: []byte("CREATE TABLE t (c INT)")},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(fmt.Errorf("connection refused"))
			},
			errMsg: "mysql.WithInstance()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			tt.setupMock(mock)

			got, err := Migrate(sqlx.NewDb(db, "mysql"), tt.migrations, "migrations")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.False(t, got.Changed())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	ups, err := fs.Glob(schemas.Migrations, schemas.MigrationsDirectory + "/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(schemas.Migrations, schemas.MigrationsDirectory + "/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestMigrationResult_Changed(t *testing.T) {
	assert.False(t, MigrationResult{}.Changed())
	assert.False(t, MigrationResult{From: 1, To: 1}.Changed())
	assert.True(t, MigrationResult{From: 0, To: 1}.Changed())
}
