package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/repository"
)

type bookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	b := &domain.Book{}
	query := `SELECT id, owner_id, group_id, title, COALESCE(cover_url, ''), lending_fee_cents FROM books WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.OwnerID, &b.GroupID, &b.Title, &b.CoverURL, &b.LendingFeeCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
