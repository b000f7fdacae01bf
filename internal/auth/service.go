package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"smartcover-proxy/internal/infrastructure/config"
)

// defaultTokenTTL is the token lifetime used when none is configured.
const defaultTokenTTL = 60 * time.Minute

// Claims are the registered JWT claims carried by issued tokens.
// The proxy adds nothing beyond sub, iat, exp and a random jti.
type Claims struct {
	jwt.RegisteredClaims
}

// Service mints and validates bearer tokens for the single configured
// account. It holds only immutable state (signing secret, TTL, account)
// and is safe for unlimited concurrent calls.
type Service struct {
	secret  []byte
	ttl     time.Duration
	account Account
}

// NewService creates the token service from configuration.
//
// Parameters:
//   - cfg: Auth configuration (signing secret, TTL, account password)
//
// Returns:
//   - *Service: Ready-to-use token service
//   - error: If the signing secret or account password is missing
func NewService(cfg config.AuthConfig) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin password is required")
	}

	ttl := time.Duration(cfg.TokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &Service{
		secret:  []byte(cfg.JWTSecret),
		ttl:     ttl,
		account: NewAccount(cfg.AdminPassword),
	}, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue verifies the credentials and mints a signed bearer token.
//
// The password check runs in constant time regardless of which field is
// wrong, and the returned error is uniform (ErrInvalidCredentials) to
// prevent username enumeration.
//
// Parameters:
//   - username: Must equal the configured account username
//   - password: The account secret
//
// Returns:
//   - string: Signed JWT
//   - int: Token lifetime in seconds (for the expires_in response field)
//   - error: ErrInvalidCredentials on any mismatch
func (s *Service) Issue(username, password string) (string, int, error) {
	// Always run the password comparison, even for a wrong username, so
	// both failure paths take comparable time.
	ok, err := VerifyPassword(password, s.account.secret)
	if err != nil {
		return "", 0, fmt.Errorf("verifying password: %w", err)
	}
	if username != s.account.Username || !ok {
		return "", 0, ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.account.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("signing access token: %w", err)
	}

	return signed, int(s.ttl.Seconds()), nil
}

// Validate verifies the signature, expiry and subject of a bearer token.
//
// Parameters:
//   - tokenString: The raw JWT from the Authorization header
//
// Returns:
//   - *Claims: Decoded claims on success
//   - error: ErrTokenExpired, ErrTokenMalformed or ErrWrongSubject
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Subject != s.account.Username {
		return nil, ErrWrongSubject
	}

	return claims, nil
}
