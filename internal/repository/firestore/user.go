package firestore

import (
	"context"
	"fmt"

	"bookshare-backend/internal/domain"

	"google.golang.org/grpc/codes"
)

type userDoc struct {
	Name      string `firestore:"name"`
	AvatarURL string `firestore:"avatar_url"`
	Email     string `firestore:"email"`
	PushToken string `firestore:"fcm_token"`
}

type userRepository Store

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	snap, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if isCode(err, codes.NotFound) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return &domain.User{ID: id, Name: doc.Name, AvatarURL: doc.AvatarURL, Email: doc.Email, PushToken: doc.PushToken}, nil
}

type bookDoc struct {
	OwnerID         string `firestore:"owner_id"`
	GroupID         string `firestore:"group_id"`
	Title           string `firestore:"title"`
	CoverURL        string `firestore:"cover_url"`
	LendingFeeCents int64  `firestore:"lending_fee_cents"`
}

type bookRepository Store

func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	snap, err := r.client.Collection(booksCollection).Doc(id).Get(ctx)
	if isCode(err, codes.NotFound) {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book %s: %w", id, err)
	}
	var doc bookDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return &domain.Book{
		ID: id, OwnerID: doc.OwnerID, GroupID: doc.GroupID, Title: doc.Title,
		CoverURL: doc.CoverURL, LendingFeeCents: doc.LendingFeeCents,
	}, nil
}
