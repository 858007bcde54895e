package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "postboard-api"

// ErrInvalidToken is returned for any bearer string that does not verify.
var ErrInvalidToken = errors.New("invalid token")

// IssuedToken is a signed bearer string and the identifiers it carries.
type IssuedToken struct {
	Token     string
	TokenID   string
	UserID    uint
	ExpiresAt *time.Time
}

// TokenIssuer signs and verifies HS256 bearer tokens. The jti of every token
// names a personal_access_tokens row; the row, not the signature, decides
// whether the token is still live.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer. A zero ttl issues tokens without expiry.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a fresh token for userID.
func (i *TokenIssuer) Issue(userID uint) (*IssuedToken, error) {
	if len(i.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	out := &IssuedToken{TokenID: claims.ID, UserID: userID}
	if i.ttl > 0 {
		exp := now.Add(i.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		out.ExpiresAt = &exp
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	out.Token = signed
	return out, nil
}

// Parse verifies raw and returns the token and user identifiers it carries.
func (i *TokenIssuer) Parse(raw string) (tokenID string, userID uint, err error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return "", 0, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return "", 0, ErrInvalidToken
	}
	return claims.ID, uint(id), nil
}
