package database

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"0001_init.up.sql":   {Data: []byte("CREATE TABLE users (id UUID PRIMARY KEY);")},
		"0001_init.down.sql": {Data: []byte("DROP TABLE users;")},
		"0002_tags.up.sql":   {Data: []byte("CREATE TABLE tags (id UUID PRIMARY KEY);")},
		"0002_tags.down.sql": {Data: []byte("DROP TABLE tags;")},
		"README.md":          {Data: []byte("not a migration")},
	}
}

func setupMigrator(t *testing.T, fsys fstest.MapFS) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMigrator(db, fsys, zap.NewNop()), mock
}

func expectBookkeeping(mock sqlmock.Sqlmock, appliedVersions ...string) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"version", "applied_at"})
	for _, v := range appliedVersions {
		rows.AddRow(v, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, applied_at FROM schema_migrations")).
		WillReturnRows(rows)
}

func TestMigratorLoad(t *testing.T) {
	m, _ := setupMigrator(t, testMigrations())

	migrations, err := m.Load()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001", migrations[0].Version)
	assert.Equal(t, "init", migrations[0].Name)
	assert.Equal(t, "DROP TABLE users;", migrations[0].Down)
	assert.Equal(t, "0002", migrations[1].Version)
}

func TestMigratorLoadRejectsMissingUp(t *testing.T) {
	m, _ := setupMigrator(t, fstest.MapFS{
		"0003_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
	})

	_, err := m.Load()
	assert.Error(t, err)
}

func TestMigratorUpAppliesPending(t *testing.T) {
	m, mock := setupMigrator(t, testMigrations())
	expectBookkeeping(mock, "0001")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE tags")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)")).
		WithArgs("0002", "tags").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	applied, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorUpRollsBackOnFailure(t *testing.T) {
	m, mock := setupMigrator(t, testMigrations())
	expectBookkeeping(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE users")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	applied, err := m.Up(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, applied)
	assert.Contains(t, err.Error(), "0001_init")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorDownRollsBackNewestFirst(t *testing.T) {
	m, mock := setupMigrator(t, testMigrations())
	expectBookkeeping(mock, "0001", "0002")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE tags;")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schema_migrations WHERE version = $1")).
		WithArgs("0002").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rolledBack, err := m.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rolledBack)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorStatus(t *testing.T) {
	m, mock := setupMigrator(t, testMigrations())
	expectBookkeeping(mock, "0001")

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.NotNil(t, statuses[0].AppliedAt)
	assert.Nil(t, statuses[1].AppliedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
