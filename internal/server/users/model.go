package users

// RefreshToken is one issued refresh token, stored until it is used or
// expires. The token string itself is the document id.
type RefreshToken struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	ExpiresAt int64  `json:"expiresAt"` // Unix milliseconds
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Email          string
	Password       string
	DisplayName    string
	EducationLevel string
	FormClass      int
}
