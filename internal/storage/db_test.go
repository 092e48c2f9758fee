package storage_test

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripmate/internal/storage"
)

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(storage.Migrations, storage.MigrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	sql, err := fs.ReadFile(storage.Migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS saved_trips")
}

func TestRunMigrations_MissingDir(t *testing.T) {
	err := storage.RunMigrations(context.Background(), nil, fstest.MapFS{}, "migrations")
	require.Error(t, err)
}

func TestRunMigrations_EmptyDir(t *testing.T) {
	fsys := fstest.MapFS{"migrations/README.md": {Data: []byte("notes")}}

	err := storage.RunMigrations(context.Background(), nil, fsys, "migrations")
	require.NoError(t, err)
}

func TestRunMigrations_RunsInOrder(t *testing.T) {
	mock := newMock(t)
	fsys := fstest.MapFS{
		"migrations/002_second.sql": {Data: []byte("CREATE INDEX b ON a (id);")},
		"migrations/001_first.sql":  {Data: []byte("CREATE TABLE a (id int);")},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id int);")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX b ON a (id);")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	err := storage.RunMigrations(context.Background(), mock, fsys, "migrations")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_BeginError(t *testing.T) {
	mock := newMock(t)
	fsys := fstest.MapFS{"migrations/001_first.sql": {Data: []byte("SELECT 1;")}}

	mock.ExpectBegin().WillReturnError(fmt.Errorf("no connection"))

	err := storage.RunMigrations(context.Background(), mock, fsys, "migrations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beginning transaction")
}

func TestRunMigrations_ExecErrorRollsBackAndStops(t *testing.T) {
	mock := newMock(t)
	fsys := fstest.MapFS{
		"migrations/001_first.sql":  {Data: []byte("BROKEN SQL")},
		"migrations/002_second.sql": {Data: []byte("SELECT 1;")},
	}

	mock.ExpectBegin()
	mock.ExpectExec("BROKEN SQL").WillReturnError(fmt.Errorf("syntax error"))
	mock.ExpectRollback()

	err := storage.RunMigrations(context.Background(), mock, fsys, "migrations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_first.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_CommitError(t *testing.T) {
	mock := newMock(t)
	fsys := fstest.MapFS{"migrations/001_first.sql": {Data: []byte("SELECT 1;")}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT 1;")).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit().WillReturnError(fmt.Errorf("commit failed"))

	err := storage.RunMigrations(context.Background(), mock, fsys, "migrations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing transaction")
}
