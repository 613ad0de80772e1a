package firestore

import (
	"context"
	"fmt"
	"time"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

type notificationDoc struct {
	ID        string    `firestore:"id"`
	UserID    string    `firestore:"user_id"`
	GroupID   string    `firestore:"group_id"`
	Type      string    `firestore:"type"`
	Title     string    `firestore:"title"`
	Message   string    `firestore:"message"`
	IsRead    bool      `firestore:"is_read"`
	RelatedID string    `firestore:"related_id"`
	DedupeKey string    `firestore:"dedupe_key"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d *notificationDoc) toDomain() domain.Notification {
	return domain.Notification{
		ID: d.ID, UserID: d.UserID, GroupID: d.GroupID, Type: domain.NotificationType(d.Type),
		Title: d.Title, Message: d.Message, IsRead: d.IsRead, RelatedID: d.RelatedID,
		DedupeKey: d.DedupeKey, CreatedAt: d.CreatedAt.UTC(),
	}
}

type notificationRepository Store

func (r *notificationRepository) col() *firestore.CollectionRef {
	return r.client.Collection(notificationsCollection)
}

// Create keys the document by the dedupe-derived ID, so a second write of the same event fails with AlreadyExists.
func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = domain.NotificationIDFor(n.DedupeKey)
	}
	doc := notificationDoc{
		ID: n.ID, UserID: n.UserID, GroupID: n.GroupID, Type: string(n.Type), Title: n.Title,
		Message: n.Message, IsRead: n.IsRead, RelatedID: n.RelatedID, DedupeKey: n.DedupeKey, CreatedAt: n.CreatedAt,
	}
	logger.DatabaseCall("CREATE", notificationsCollection, "notificationID", n.ID)
	_, err := r.col().Doc(n.ID).Create(ctx, doc)
	if isCode(err, codes.AlreadyExists) {
		logger.DatabaseResult("CREATE", 0, nil, "dedupeKey", n.DedupeKey)
		return false, nil
	}
	logger.DatabaseResult("CREATE", 1, err, "notificationID", n.ID)
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	return true, nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	q := r.col().Where("user_id", "==", userID)
	res, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	var total int32
	if v, ok := res["total"].(*firestorepb.Value); ok {
		total = int32(v.GetIntegerValue())
	}

	iter := q.OrderBy("created_at", firestore.Desc).Offset(int(offset)).Limit(int(limit)).Documents(ctx)
	defer iter.Stop()
	var notes []domain.Notification
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
		}
		var doc notificationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, 0, err
		}
		notes = append(notes, doc.toDomain())
	}
	return notes, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int32, error) {
	q := r.col().Where("user_id", "==", userID).Where("is_read", "==", false)
	res, err := q.NewAggregationQuery().WithCount("unread").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	if v, ok := res["unread"].(*firestorepb.Value); ok {
		return int32(v.GetIntegerValue()), nil
	}
	return 0, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	ref := r.col().Doc(id)
	return r.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		snap, err := ft.Get(ref)
		if isCode(err, codes.NotFound) {
			return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var doc notificationDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if doc.UserID != userID {
			return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
		}
		return ft.Update(ref, []firestore.Update{{Path: "is_read", Value: true}})
	})
}

// DeleteOlderThan streams expired documents into a BulkWriter.
func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	logger.DatabaseCall("DELETE", notificationsCollection, "cutoff", cutoff)

	iter := r.col().Where("created_at", "<", cutoff).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			logger.DatabaseResult("DELETE", 0, err)
			return 0, fmt.Errorf("failed to scan expired notifications: %w", err)
		}
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to enqueue delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var deleted int64
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	logger.DatabaseResult("DELETE", deleted, firstErr)
	if firstErr != nil {
		return deleted, fmt.Errorf("failed to purge some notifications: %w", firstErr)
	}
	return deleted, nil
}
