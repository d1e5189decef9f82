package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/authz"
)

// Identity is the decoded content of a valid session token: who the
// caller is and which role they hold, plus the token's time bounds. It
// lives for a single invocation and is never persisted beyond the token
// itself. The embedded authz.Identity is what gets threaded into
// authorization checks.
type Identity struct {
	authz.Identity
	IssuedAt time.Time
	Expiry   time.Time
}

// tokenClaims is the wire shape of the identity inside a JWT.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// TokenService issues and verifies signed, time-bounded identity
// assertions. The signing secret comes from configuration and is
// immutable after construction, so a single TokenService is safe for
// concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service signing with the given secret.
// A zero ttl falls back to 24 hours.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue builds a claim set for the given subject and signs it with HS256.
// Tokens are one-way: there is no refresh, a new token requires a fresh
// login.
func (s *TokenService) Issue(userID int64, role authz.Role) (string, error) {
	now := s.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
		Role:   string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify re-computes and checks the token signature, then the expiry.
// Claim validation is disabled during parsing so the signature check
// always runs first and on every path; expiry is checked explicitly
// afterwards. Tampered and expired tokens both come back as a session
// error of the same kind.
func (s *TokenService) Verify(tokenString string) (*Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, apperror.NewSession("session token signature is invalid")
		}
		return nil, apperror.NewSession("session token is invalid")
	}

	if claims.ExpiresAt == nil {
		return nil, apperror.NewSession("session token is invalid")
	}
	expiry := claims.ExpiresAt.Time.UTC()
	if !expiry.After(s.now().UTC()) {
		return nil, apperror.NewSession("session has expired, please log in again")
	}

	role, err := authz.ParseRole(claims.Role)
	if err != nil {
		return nil, apperror.NewSession("session token is invalid")
	}

	identity := &Identity{
		Identity: authz.Identity{UserID: claims.UserID, Role: role},
		Expiry:   expiry,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return identity, nil
}
