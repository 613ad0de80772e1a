package postgres

import (
	"context"
	"testing"

	"bookshare-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "avatar_url", "email", "push_token"}).
			AddRow("u1", "Ana", "", "ana@example.com", "fcm-token"))

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "fcm-token", u.PushToken)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "avatar_url", "email", "push_token"}))

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBookRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM books WHERE id = \\$1").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "group_id", "title", "cover_url", "lending_fee_cents"}).
			AddRow("b1", "u1", "g1", "Dune", "", int64(250)))

	b, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "u1", b.OwnerID)
	assert.Equal(t, int64(250), b.LendingFeeCents)
}
