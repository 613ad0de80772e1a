package domain

// User is the read-only profile the lifecycle needs: display fields and delivery addresses.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
	PushToken string `json:"-"`
}
