// FilePath: internal/auth/auth.go

// Package auth implements the access gate: password verification, token
// issuance, and token verification for operator and admin accounts.
package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smartir/hub/internal/config"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
	"github.com/smartir/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown, so the
// unknown-user and wrong-password paths cost roughly the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Claims are the verified contents of an access token. Verification reads
// only these embedded claims and never re-hits storage.
type Claims struct {
	jwt.RegisteredClaims
	Role models.UserRole `json:"role"`
}

// UserID returns the numeric account id carried in the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// LoginResult is what a successful authentication hands back.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Gate issues and verifies bearer credentials.
type Gate struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewGate(users repository.UserRepository, cfg config.AuthConfig) *Gate {
	return &Gate{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
	}
}

// Authenticate checks the credentials and, on success, records the login
// time and issues a signed, time-boxed token. Unknown usernames and wrong
// passwords both come back as the same authentication error; a disabled
// account with a correct password is reported distinctly (and still denied).
func (g *Gate) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			// Burn a compare anyway so the response time does not
			// reveal whether the username exists.
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, errors.NewAuthError("invalid username or password", nil)
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, errors.NewAuthError("invalid username or password", nil)
	}

	if !user.IsActive {
		return nil, errors.NewAuthorizationError("account disabled", nil)
	}

	now := time.Now().UTC()
	if err := g.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		nuts.L.Warnf("[Auth] Failed to update last login for user %d: %v", user.ID, err)
	} else {
		user.LastLogin = &now
	}

	token, err := g.issueToken(user, now)
	if err != nil {
		return nil, errors.NewInternalError("failed to issue token", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (g *Gate) issueToken(user *models.User, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
		Role: user.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// Verify parses and validates a token string. Missing, malformed, expired,
// and badly-signed tokens all fail with an authentication error.
func (g *Gate) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.NewAuthError("no token provided", nil)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAuthError("unexpected signing method", nil)
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, errors.NewAuthError("invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.NewAuthError("invalid token", nil)
	}
	if g.issuer != "" && claims.Issuer != g.issuer {
		return nil, errors.NewAuthError("invalid token issuer", nil)
	}
	return claims, nil
}
