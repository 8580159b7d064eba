package auth

import "context"

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type RepositoryAPI interface {
	GetByEmail(email string) (*Account, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email, role string) (string, error)
	GenerateRefreshToken(userID int64, email, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Account is the credential row loaded for authentication.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
}

// User is the authenticated identity carried in request context.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) IsStaff() bool {
	return u.Role == "staff"
}

type ctxKey string

const userContextKey ctxKey = "auth.user"

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok
}
