package dao

import (
	"regexp"
	"testing"

	"gitee.com/flycash/rental-notification/internal/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestScheduledEntryDAO_Claim(t *testing.T) {
	t.Parallel()

	t.Run("仍为PENDING的条目认领成功", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		d := NewScheduledEntryDAO(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE `scheduled_entries` SET `status`=?,`utime`=? WHERE id = ? AND status = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := d.Claim(t.Context(), 1)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("已被抢先认领时返回专属错误", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		d := NewScheduledEntryDAO(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE `scheduled_entries` SET `status`=?,`utime`=? WHERE id = ? AND status = ?")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := d.Claim(t.Context(), 1)
		assert.ErrorIs(t, err, errs.ErrScheduledEntryClaimed)
	})
}

func TestScheduledEntryDAO_FindDue(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	d := NewScheduledEntryDAO(db)

	rows := sqlmock.NewRows([]string{"id", "notification_id", "due_at", "status", "last_error", "ctime", "utime"}).
		AddRow(1, 100, 1000, "PENDING", "", 1, 1).
		AddRow(2, 200, 2000, "PENDING", "", 1, 1)
	mock.ExpectQuery("SELECT \\* FROM `scheduled_entries` WHERE status = \\? AND due_at <= \\? ORDER BY due_at ASC LIMIT").
		WillReturnRows(rows)

	entries, err := d.FindDue(t.Context(), 3000, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(100), entries[0].NotificationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
