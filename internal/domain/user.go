package domain

import (
	"context"
	"database/sql"
	"time"
)

//go:generate mockgen -destination mocks/mock_user_repository.go -package mocks github.com/aihubhq/aihub/internal/domain UserRepository
//go:generate mockgen -destination mocks/mock_auth_service.go -package mocks github.com/aihubhq/aihub/internal/domain AuthService

type contextKey string

const AuthUserKey contextKey = "auth_user"

// User is an account and credit holder
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Credits          int       `json:"credits"`
	StripeCustomerID *string   `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ScanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (*User, error) {
	var u User
	var email, customerID sql.NullString
	if err := scanner.Scan(&u.ID, &email, &u.Credits, &customerID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.StripeCustomerID = nullStringPtr(customerID)
	return &u, nil
}

var UserColumns = []string{"id", "email", "credits", "stripe_customer_id", "created_at", "updated_at"}

// AuthenticatedUser is the caller identity taken from a verified bearer token
type AuthenticatedUser struct {
	ID    string
	Email string
}

func WithAuthenticatedUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

func AuthenticatedUserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	user, ok := ctx.Value(AuthUserKey).(*AuthenticatedUser)
	return user, ok && user != nil
}

type CreditsResponse struct {
	Credits int `json:"credits"`
}

type AuthService interface {
	// VerifyToken checks the bearer token and makes sure the user row exists
	VerifyToken(ctx context.Context, token string) (*AuthenticatedUser, error)
}

type UserRepository interface {
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
	GetByID(ctx context.Context, id string) (*User, error)
	// EnsureUser creates the row for an identity issued by the auth provider if it is missing
	EnsureUser(ctx context.Context, id, email string) error
	GetCredits(ctx context.Context, id string) (int, error)

	GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*User, error)
	GetByEmailTx(ctx context.Context, tx *sql.Tx, email string) (*User, error)
	CreateTx(ctx context.Context, tx *sql.Tx, user *User) error
	// AddCreditsTx returns the new balance; an empty customerID keeps the stored one
	AddCreditsTx(ctx context.Context, tx *sql.Tx, id string, amount int, customerID string) (int, error)
}
