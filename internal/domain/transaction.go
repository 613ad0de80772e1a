package domain

import (
	"fmt"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusApproved  TransactionStatus = "APPROVED"
	TransactionStatusActive    TransactionStatus = "ACTIVE"
	TransactionStatusReturned  TransactionStatus = "RETURNED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// transitions is the complete lifecycle graph. Anything not listed is illegal.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:  {TransactionStatusApproved, TransactionStatusRejected},
	TransactionStatusApproved: {TransactionStatusActive, TransactionStatusCancelled},
	TransactionStatusActive:   {TransactionStatusReturned},
}

// OpenStatuses are the statuses that block a second request for the same book by the same borrower.
var OpenStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusApproved,
	TransactionStatusActive,
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusActive,
		TransactionStatusReturned, TransactionStatusRejected, TransactionStatusCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusReturned || s == TransactionStatusRejected || s == TransactionStatusCancelled
}

func (s TransactionStatus) IsOpen() bool {
	for _, o := range OpenStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// CanTransition reports whether the lifecycle graph has an edge from -> to.
func CanTransition(from, to TransactionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type BorrowDuration string

const (
	BorrowDurationOneWeek    BorrowDuration = "ONE_WEEK"
	BorrowDurationTwoWeeks   BorrowDuration = "TWO_WEEKS"
	BorrowDurationThreeWeeks BorrowDuration = "THREE_WEEKS"
	BorrowDurationOneMonth   BorrowDuration = "ONE_MONTH"
	BorrowDurationCustom     BorrowDuration = "CUSTOM"
)

const MaxCustomDurationDays = 90

// ResolveDurationDays returns the borrow length in days. customDays is only read for CUSTOM.
func ResolveDurationDays(d BorrowDuration, customDays int) (int, error) {
	switch d {
	case BorrowDurationOneWeek:
		return 7, nil
	case BorrowDurationTwoWeeks:
		return 14, nil
	case BorrowDurationThreeWeeks:
		return 21, nil
	case BorrowDurationOneMonth:
		return 30, nil
	case BorrowDurationCustom:
		if customDays < 1 || customDays > MaxCustomDurationDays {
			return 0, fmt.Errorf("%w: custom duration must be between 1 and %d days", ErrInvalidArgument, MaxCustomDurationDays)
		}
		return customDays, nil
	}
	return 0, fmt.Errorf("%w: unknown duration %q", ErrInvalidArgument, d)
}

type PartyRole string

const (
	PartyRoleBorrower PartyRole = "BORROWER"
	PartyRoleOwner    PartyRole = "OWNER"
)

func (r PartyRole) Valid() bool {
	return r == PartyRoleBorrower || r == PartyRoleOwner
}

// PaymentStatus is an attestation by both parties; no money moves through the system.
type PaymentStatus struct {
	BorrowerConfirmed bool `json:"borrower_confirmed"`
	OwnerConfirmed    bool `json:"owner_confirmed"`
}

func (p PaymentStatus) Complete() bool {
	return p.BorrowerConfirmed && p.OwnerConfirmed
}

type Transaction struct {
	ID         string `json:"id"`
	BookID     string `json:"book_id"`
	OwnerID    string `json:"owner_id"`
	BorrowerID string `json:"borrower_id"`
	GroupID    string `json:"group_id"`

	// Display snapshot, copied at creation and not kept in sync with the profiles.
	BookTitle         string `json:"book_title"`
	BookCoverURL      string `json:"book_cover_url"`
	OwnerName         string `json:"owner_name"`
	OwnerAvatarURL    string `json:"owner_avatar_url"`
	BorrowerName      string `json:"borrower_name"`
	BorrowerAvatarURL string `json:"borrower_avatar_url"`

	Status             TransactionStatus `json:"status"`
	Duration           BorrowDuration    `json:"duration"`
	DurationDays       int               `json:"duration_days"`
	DueDate            *time.Time        `json:"due_date,omitempty"`
	LendingFeeCents    int64             `json:"lending_fee_cents"`
	Message            string            `json:"message"`
	RejectionReason    string            `json:"rejection_reason"`
	CancellationReason string            `json:"cancellation_reason"`
	CancelledBy        string            `json:"cancelled_by,omitempty"`

	HandoverOTP       *string    `json:"handover_otp,omitempty"`
	HandoverOTPExpiry *time.Time `json:"handover_otp_expiry,omitempty"`
	ReturnOTP         *string    `json:"return_otp,omitempty"`
	ReturnOTPExpiry   *time.Time `json:"return_otp_expiry,omitempty"`

	Payment PaymentStatus `json:"payment"`

	RequestedAt time.Time  `json:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	HandoverAt  *time.Time `json:"handover_at,omitempty"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	OwnerRating         *int    `json:"owner_rating,omitempty"`
	BorrowerRating      *int    `json:"borrower_rating,omitempty"`
	OwnerComment        *string `json:"owner_comment,omitempty"`
	BorrowerComment     *string `json:"borrower_comment,omitempty"`
	BookConditionRating *int    `json:"book_condition_rating,omitempty"`

	DueSoonNotifiedAt *time.Time `json:"due_soon_notified_at,omitempty"`
	OverdueNotifiedAt *time.Time `json:"overdue_notified_at,omitempty"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleOf returns the party the user plays in this transaction.
func (t *Transaction) RoleOf(userID string) (PartyRole, bool) {
	switch userID {
	case t.OwnerID:
		return PartyRoleOwner, true
	case t.BorrowerID:
		return PartyRoleBorrower, true
	}
	return "", false
}

// Counterparty returns the other party's user ID.
func (t *Transaction) Counterparty(userID string) string {
	if userID == t.OwnerID {
		return t.BorrowerID
	}
	return t.OwnerID
}

// OverdueCutoff is the first instant after now's UTC calendar day. A due date before it is due today or earlier.
func OverdueCutoff(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// IsOverdue reports whether an active borrow was due on or before now's UTC calendar day.
func (t *Transaction) IsOverdue(now time.Time) bool {
	return t.Status == TransactionStatusActive && t.DueDate != nil && t.DueDate.Before(OverdueCutoff(now))
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	c.HandoverOTP = cloneString(t.HandoverOTP)
	c.HandoverOTPExpiry = cloneTime(t.HandoverOTPExpiry)
	c.ReturnOTP = cloneString(t.ReturnOTP)
	c.ReturnOTPExpiry = cloneTime(t.ReturnOTPExpiry)
	c.ApprovedAt = cloneTime(t.ApprovedAt)
	c.HandoverAt = cloneTime(t.HandoverAt)
	c.ReturnedAt = cloneTime(t.ReturnedAt)
	c.RejectedAt = cloneTime(t.RejectedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	c.OwnerRating = cloneInt(t.OwnerRating)
	c.BorrowerRating = cloneInt(t.BorrowerRating)
	c.OwnerComment = cloneString(t.OwnerComment)
	c.BorrowerComment = cloneString(t.BorrowerComment)
	c.BookConditionRating = cloneInt(t.BookConditionRating)
	c.DueSoonNotifiedAt = cloneTime(t.DueSoonNotifiedAt)
	c.OverdueNotifiedAt = cloneTime(t.OverdueNotifiedAt)
	return &c
}

func (t *Transaction) transition(to TransactionStatus) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	return nil
}

// Approve moves a pending request to APPROVED and installs a fresh handover code.
func (t *Transaction) Approve(now time.Time, code string, expiry time.Time) error {
	if err := t.transition(TransactionStatusApproved); err != nil {
		return err
	}
	t.Status = TransactionStatusApproved
	t.ApprovedAt = &now
	t.SetHandoverOTP(code, expiry)
	return nil
}

func (t *Transaction) Reject(now time.Time, reason string) error {
	if err := t.transition(TransactionStatusRejected); err != nil {
		return err
	}
	t.Status = TransactionStatusRejected
	t.RejectedAt = &now
	t.RejectionReason = reason
	return nil
}

func (t *Transaction) Cancel(now time.Time, by, reason string) error {
	if err := t.transition(TransactionStatusCancelled); err != nil {
		return err
	}
	t.Status = TransactionStatusCancelled
	t.CancelledAt = &now
	t.CancelledBy = by
	t.CancellationReason = reason
	t.clearHandoverOTP()
	return nil
}

// Handover records the in-person pickup. The due date is counted from the handover, not the approval.
func (t *Transaction) Handover(now time.Time, returnCode string, returnExpiry time.Time) error {
	if err := t.transition(TransactionStatusActive); err != nil {
		return err
	}
	due := now.AddDate(0, 0, t.DurationDays)
	t.Status = TransactionStatusActive
	t.HandoverAt = &now
	t.DueDate = &due
	t.clearHandoverOTP()
	t.SetReturnOTP(returnCode, returnExpiry)
	return nil
}

func (t *Transaction) Return(now time.Time) error {
	if err := t.transition(TransactionStatusReturned); err != nil {
		return err
	}
	t.Status = TransactionStatusReturned
	t.ReturnedAt = &now
	t.clearReturnOTP()
	return nil
}

// SetHandoverOTP replaces any previous handover code; the old one can no longer validate.
func (t *Transaction) SetHandoverOTP(code string, expiry time.Time) {
	t.HandoverOTP = &code
	t.HandoverOTPExpiry = &expiry
}

func (t *Transaction) SetReturnOTP(code string, expiry time.Time) {
	t.ReturnOTP = &code
	t.ReturnOTPExpiry = &expiry
}

func (t *Transaction) clearHandoverOTP() {
	t.HandoverOTP = nil
	t.HandoverOTPExpiry = nil
}

func (t *Transaction) clearReturnOTP() {
	t.ReturnOTP = nil
	t.ReturnOTPExpiry = nil
}

// Rate records one party's post-return review. Each party rates once and only touches its own fields.
func (t *Transaction) Rate(role PartyRole, rating int, comment *string, bookCondition *int) error {
	if t.Status != TransactionStatusReturned {
		return fmt.Errorf("%w: ratings open once the book is returned", ErrInvalidTransition)
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be 1-5, got %d", ErrInvalidRating, rating)
	}
	if bookCondition != nil && (*bookCondition < 1 || *bookCondition > 5) {
		return fmt.Errorf("%w: book condition must be 1-5, got %d", ErrInvalidRating, *bookCondition)
	}
	switch role {
	case PartyRoleOwner:
		if t.OwnerRating != nil {
			return ErrAlreadyRated
		}
		t.OwnerRating = &rating
		t.OwnerComment = cloneString(comment)
		t.BookConditionRating = cloneInt(bookCondition)
	case PartyRoleBorrower:
		if bookCondition != nil {
			return fmt.Errorf("%w: only the owner rates book condition", ErrForbidden)
		}
		if t.BorrowerRating != nil {
			return ErrAlreadyRated
		}
		t.BorrowerRating = &rating
		t.BorrowerComment = cloneString(comment)
	default:
		return ErrForbidden
	}
	return nil
}

// ConfirmPayment sets one side of the payment attestation.
func (t *Transaction) ConfirmPayment(role PartyRole) error {
	if t.Status == TransactionStatusRejected || t.Status == TransactionStatusCancelled {
		return fmt.Errorf("%w: no payment on a %s transaction", ErrInvalidTransition, t.Status)
	}
	switch role {
	case PartyRoleBorrower:
		t.Payment.BorrowerConfirmed = true
	case PartyRoleOwner:
		t.Payment.OwnerConfirmed = true
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}
	return nil
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ViewFor returns a copy with the codes the viewer must not see removed. The borrower reads the
// handover code aloud and the owner reads the return code; the party typing a code never receives it.
func (t *Transaction) ViewFor(userID string) *Transaction {
	c := t.Clone()
	if userID != t.BorrowerID {
		c.clearHandoverOTP()
	}
	if userID != t.OwnerID {
		c.clearReturnOTP()
	}
	return c
}
