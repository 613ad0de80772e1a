package notifier

import (
	"fmt"

	"bookshare-backend/internal/domain"
)

const dateLayout = "Mon 2 Jan"

// render builds the title and body shown to userID for ev.
func render(ev domain.TransitionEvent, userID string) (string, string) {
	tx := ev.Transaction
	due := ""
	if tx.DueDate != nil {
		due = tx.DueDate.Format(dateLayout)
	}

	switch ev.Type {
	case domain.NotificationTypeRequestCreated:
		return "New borrow request",
			fmt.Sprintf("%s would like to borrow %q for %d days.", tx.BorrowerName, tx.BookTitle, tx.DurationDays)
	case domain.NotificationTypeApproved:
		return "Request approved",
			fmt.Sprintf("%s approved your request for %q. Meet up and show your handover code.", tx.OwnerName, tx.BookTitle)
	case domain.NotificationTypeRejected:
		body := fmt.Sprintf("%s declined your request for %q.", tx.OwnerName, tx.BookTitle)
		if tx.RejectionReason != "" {
			body += " Reason: " + tx.RejectionReason
		}
		return "Request declined", body
	case domain.NotificationTypeDueSoon:
		return "Return reminder",
			fmt.Sprintf("%q is due back to %s on %s.", tx.BookTitle, tx.OwnerName, due)
	case domain.NotificationTypeOverdue:
		return "Book overdue",
			fmt.Sprintf("%q was due back on %s. Please arrange the return with %s.", tx.BookTitle, due, tx.OwnerName)
	case domain.NotificationTypeReturned:
		if userID == tx.OwnerID {
			return "Book returned", fmt.Sprintf("%s returned %q. Rate how it went.", tx.BorrowerName, tx.BookTitle)
		}
		return "Book returned", fmt.Sprintf("You returned %q to %s. Rate how it went.", tx.BookTitle, tx.OwnerName)
	case domain.NotificationTypeCancelled:
		who := tx.OwnerName
		if tx.CancelledBy == tx.BorrowerID {
			who = tx.BorrowerName
		}
		return "Borrow cancelled", fmt.Sprintf("%s cancelled the borrow of %q.", who, tx.BookTitle)
	}
	return "Update", fmt.Sprintf("There is an update on %q.", tx.BookTitle)
}
