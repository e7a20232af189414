package publish_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/publish"
)

func TestStoreSaveSnapshotDBError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT OR REPLACE INTO publish_jobs").
		WillReturnError(errors.New("disk I/O error"))

	store := publish.NewStore(mockDB)
	err = store.SaveSnapshot(terminalJob(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save job snapshot")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLoadSnapshotDBError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT (.+) FROM publish_jobs").
		WillReturnError(errors.New("database is locked"))

	store := publish.NewStore(mockDB)
	_, err = store.LoadSnapshot("JB123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load job snapshot")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListDueDBError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT (.+) FROM scheduled_jobs").
		WillReturnError(errors.New("database is locked"))

	store := publish.NewStore(mockDB)
	_, err = store.ListDue(time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list due scheduled jobs")

	assert.NoError(t, mock.ExpectationsWereMet())
}
