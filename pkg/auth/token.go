package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

var signingMethod = jwt.SigningMethodHS256

// ErrInvalidClaims marks a token that verified but carries unusable claims.
var ErrInvalidClaims = errors.New("invalid token claims")

// AccessTokenClaims is the JWT body. The login session id travels as jti and
// the user id as sub.
type AccessTokenClaims struct {
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor rebuilds the principal the token was minted for.
func (c *AccessTokenClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{SessionID: c.ID, UserID: c.Subject, Username: c.Username, Role: c.Role}
}

func (c *AccessTokenClaims) check() error {
	if !c.Role.IsValid() {
		return fmt.Errorf("%w: role %q", ErrInvalidClaims, c.Role)
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing jti", ErrInvalidClaims)
	}
	return nil
}

func checkSigner(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case cfg.TTL() <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken signs a token for actor that expires cfg.TTL() after now.
// It returns the token and its expiry.
func MintAccessToken(cfg config.JWTConfig, now time.Time, actor Actor) (string, time.Time, error) {
	if err := checkSigner(cfg); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := now.Add(cfg.TTL())
	claims := AccessTokenClaims{
		Username: actor.Username,
		Role:     actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strings.TrimSpace(actor.SessionID),
			Subject:   actor.UserID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if err := claims.check(); err != nil {
		return "", time.Time{}, err
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the claims.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if err := claims.check(); err != nil {
		return nil, err
	}
	return claims, nil
}
