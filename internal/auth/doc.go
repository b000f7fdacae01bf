// Package auth implements the proxy's token service.
//
// It verifies the single configured account's password and mints signed,
// time-limited bearer tokens (HS256 JWT), then validates those tokens on
// every protected request:
//   - Constant-time password comparison (plain secret or Argon2id PHC hash)
//   - Uniform failure for wrong username or password (no enumeration)
//   - Signature, expiry and subject checks on validation
//
// The service is stateless: tokens are never stored and there is no
// revocation list. Validity is a pure function of the token, the signing
// secret and the clock, so the service is safe for unlimited concurrent use.
package auth
