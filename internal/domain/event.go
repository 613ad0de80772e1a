package domain

// TransitionEvent is published after a committed state change or by a sweep.
type TransitionEvent struct {
	Type        NotificationType
	Transaction Transaction
	// ActorID is the user who caused the change; empty for sweeps.
	ActorID string
}

// Recipients returns who gets a record for this event.
func (e TransitionEvent) Recipients() []string {
	tx := e.Transaction
	switch e.Type {
	case NotificationTypeRequestCreated:
		return []string{tx.OwnerID}
	case NotificationTypeApproved, NotificationTypeRejected, NotificationTypeDueSoon, NotificationTypeOverdue:
		return []string{tx.BorrowerID}
	case NotificationTypeReturned:
		return []string{tx.BorrowerID, tx.OwnerID}
	case NotificationTypeCancelled:
		if e.ActorID == "" {
			return []string{tx.BorrowerID, tx.OwnerID}
		}
		return []string{tx.Counterparty(e.ActorID)}
	}
	return nil
}
