package auth

import "time"

// UserContext is the authenticated principal carried on the request context.
type UserContext struct {
	UserID   string
	RoleID   string
	RoleName string
	Name     string
	Email    string
}

// DisplayName falls back to the email, then "Unknown".
func (u UserContext) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "Unknown"
}

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	RoleID      string     `json:"roleId"`
	RoleName    string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	MFAEnabled  bool       `json:"mfaEnabled"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`

	PasswordHash string `json:"-"`
	MFASecretEnc []byte `json:"-"`
}

type RefreshToken struct {
	ID             string
	UserID         string
	TokenHash      string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	CreatedByIP    string
	RevokedAt      *time.Time
	ReplacedByHash string
}

func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

type CreateUserInput struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	AccessToken    string    `json:"accessToken"`
	ExpiresIn      int       `json:"expiresIn"`
	User           User      `json:"user"`
	RefreshToken   string    `json:"-"`
	RefreshExpires time.Time `json:"-"`
}
