package database

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestReserveSeats(t *testing.T) {
	tripID := "trip-1"

	t.Run("Success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)
		seatIDs := []string{"seat-1", "seat-2"}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WithArgs("seat-1", "seat-2", tripID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(2, tripID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.ReserveSeats(tx, tripID, seatIDs)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Conflict Fails Whole Set", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)
		seatIDs := []string{"seat-1", "seat-2"}

		mock.ExpectBegin()
		// only one of two seats still available
		mock.ExpectExec(`UPDATE trip_seats`).
			WithArgs("seat-1", "seat-2", tripID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// conflict diagnosis reads committed state outside the tx
		mock.ExpectQuery(`SELECT id FROM trip_seats`).
			WithArgs("seat-1", "seat-2", tripID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("seat-1"))
		mock.ExpectRollback()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.ReserveSeats(tx, tripID, seatIDs)
		require.Error(t, err)
		require.NoError(t, tx.Rollback())

		conflict, ok := models.IsSeatConflict(err)
		require.True(t, ok)
		assert.Equal(t, []string{"seat-2"}, conflict.ConflictingSeatIDs)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Counter Underflow", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(1, tripID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.ReserveSeats(tx, tripID, []string{"seat-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "underflow")
		require.NoError(t, tx.Rollback())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Selection Rejected", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.ReserveSeats(tx, tripID, nil)
		assert.Error(t, err)
		require.NoError(t, tx.Rollback())
	})
}

func TestReleaseSeats(t *testing.T) {
	tripID := "trip-1"

	t.Run("Success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WithArgs("seat-1", "seat-2", tripID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(int64(2), tripID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.ReleaseSeats(tx, tripID, []string{"seat-1", "seat-2"})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing To Release Skips Counter", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.ReleaseSeats(tx, tripID, []string{"seat-1"})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkBookedSeat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WithArgs("booked-seat-1", "seat-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.LinkBookedSeat(tx, "seat-1", "booked-seat-1")
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Not Booked", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		tx, err := db.Beginx()
		require.NoError(t, err)

		err = repo.LinkBookedSeat(tx, "seat-1", "booked-seat-1")
		assert.Error(t, err)
		require.NoError(t, tx.Rollback())
	})
}

func TestBlockSeats(t *testing.T) {
	tripID := "trip-1"

	t.Run("Blocks Available Seats Only", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		// one of two requested seats was already booked; it is skipped
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(int64(1), tripID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		blocked, err := repo.BlockSeats(tripID, []string{"seat-1", "seat-2"}, "admin-1", "maintenance")
		require.NoError(t, err)
		assert.Equal(t, 1, blocked)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnError(fmt.Errorf("database error"))
		mock.ExpectRollback()

		_, err := repo.BlockSeats(tripID, []string{"seat-1"}, "admin-1", "maintenance")
		assert.Error(t, err)
	})
}

func TestUnblockSeats(t *testing.T) {
	tripID := "trip-1"

	t.Run("Success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewTripSeatRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(int64(2), tripID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		unblocked, err := repo.UnblockSeats(tripID, []string{"seat-1", "seat-2"})
		require.NoError(t, err)
		assert.Equal(t, 2, unblocked)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
