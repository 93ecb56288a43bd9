package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-chat-service/internal/models"
)

func message(id string, createdAt int64) models.ChatMessage {
	return models.ChatMessage{
		ID:         id,
		SenderID:   "alice",
		SenderName: "Alice",
		SenderRole: models.RoleParticipant,
		Body:       "hi",
		Kind:       models.KindText,
		CreatedAt:  createdAt,
	}
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mockDB
}

func TestRecentHistoryQueryOrdering(t *testing.T) {
	db, mockDB := newMockDB(t)
	repo := NewMessageRepo(db)

	columns := []string{"id", "seq", "sender_id", "sender_name", "sender_role", "body", "image_url", "kind", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("m1", 1, "alice", "Alice", "participant", "hi", "", "text", 1000).
		AddRow("m2", 2, "bob", "Bob", "participant", "yo", "", "text", 2000)

	// The derived table must carry a non-reserved alias; WINDOW is reserved
	// in postgres and fails at parse time.
	mockDB.ExpectQuery(`(?s)FROM \(.*LIMIT \$1.*\) recent\s+ORDER BY created_at ASC, seq ASC`).
		WithArgs(50).
		WillReturnRows(rows)

	msgs, err := repo.RecentHistory(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestInsertReturnsStoreAssignedSeq(t *testing.T) {
	db, mockDB := newMockDB(t)
	repo := NewMessageRepo(db)

	mockDB.ExpectQuery(`INSERT INTO messages`).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(7))

	stored, err := repo.Insert(context.Background(), message("m1", 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.Seq)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestInsertDuplicateID(t *testing.T) {
	db, mockDB := newMockDB(t)
	repo := NewMessageRepo(db)

	// ON CONFLICT DO NOTHING yields no RETURNING row for a duplicate id.
	mockDB.ExpectQuery(`INSERT INTO messages`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Insert(context.Background(), message("m1", 1000))
	assert.ErrorIs(t, err, ErrDuplicateMessage)
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	db, mockDB := newMockDB(t)
	repo := NewMessageRepo(db)

	mockDB.ExpectExec(`DELETE FROM messages WHERE`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "gone"))
	require.NoError(t, mockDB.ExpectationsWereMet())
}
