// ABOUTME: JWT session tokens for authenticating API requests
// ABOUTME: Uses HS256 signing with configurable secret, TTL and issuer

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest signing secret accepted.
const MinSecretLength = 16

// DefaultTokenTTL is the session lifetime when Config.TokenTTL is zero.
const DefaultTokenTTL = 24 * time.Hour

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrRevokedToken = errors.New("token revoked")
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims are the JWT claims of a session token.
// Subject carries the user id as a decimal string; UserID repeats it as a number.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier issues and verifies HS256 signed session tokens.
type JWTVerifier struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTVerifier creates a new JWT verifier. A zero ttl selects DefaultTokenTTL.
func NewJWTVerifier(secret []byte, ttl time.Duration, issuer string) (*JWTVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must not be negative")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTVerifier{secret: secret, ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (v *JWTVerifier) TTL() time.Duration {
	return v.ttl
}

// Generate creates a signed token for the given user with a fresh token id.
func (v *JWTVerifier) Generate(userID int64, email string) (string, *Claims, error) {
	now := v.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Verify validates the token signature and expiry and returns its claims.
func (v *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Only HMAC methods; anything else could be used to forge tokens.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: jti", ErrMissingClaim)
	}

	subID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subID <= 0 {
		return nil, fmt.Errorf("%w: malformed sub", ErrInvalidToken)
	}
	if claims.UserID == 0 {
		claims.UserID = subID
	}
	if claims.UserID != subID {
		return nil, fmt.Errorf("%w: sub and user_id disagree", ErrInvalidToken)
	}

	return claims, nil
}
