package auth

import "errors"

// AccountUsername is the single account the proxy authenticates.
const AccountUsername = "admin"

// Account is the proxy's single fixed identity, loaded once from
// configuration at startup. It is immutable for the process lifetime.
type Account struct {
	Username string

	// secret is either the plain password or an Argon2id PHC hash string.
	// Unexported so it cannot leak through serialisation or reflection-free
	// call sites.
	secret string
}

// NewAccount creates the admin account with the configured secret.
func NewAccount(secret string) Account {
	return Account{
		Username: AccountUsername,
		secret:   secret,
	}
}

// Sentinel errors for token service operations.
//
// These can be checked with errors.Is() for specific handling at the
// HTTP boundary:
//
//	if errors.Is(err, auth.ErrTokenExpired) {
//	    // 401 with a token_expired code
//	}
var (
	// ErrInvalidCredentials is returned for any wrong username or password.
	// Deliberately uniform: callers cannot tell which field was wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("auth: token has expired")

	// ErrTokenMalformed indicates a structurally invalid token or a bad signature.
	ErrTokenMalformed = errors.New("auth: malformed token")

	// ErrWrongSubject indicates a validly signed token whose subject is not
	// the configured account.
	ErrWrongSubject = errors.New("auth: token subject not recognised")
)
