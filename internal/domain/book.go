package domain

type Book struct {
	ID              string `json:"id"`
	OwnerID         string `json:"owner_id"`
	GroupID         string `json:"group_id"`
	Title           string `json:"title"`
	CoverURL        string `json:"cover_url"`
	LendingFeeCents int64  `json:"lending_fee_cents"`
}
