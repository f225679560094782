// Package auth provides account registration, login and session authentication
// for the contacts API.
//
// # Sessions
//
// A successful Login issues an HS256 JWT carrying the user id (sub, user_id),
// the email and a random token id (jti). Browsers receive it in an HttpOnly
// cookie; other clients may send it as "Authorization: Bearer <token>".
// Only HMAC signing methods are accepted when verifying.
//
// # Logout
//
// JWTs are stateless, so logout records the token id in a Revoker until the
// token's own expiry. Authenticate rejects revoked ids with ErrRevokedToken.
//
// # Passwords
//
// Passwords are hashed with bcrypt at the default cost. Signup requires at
// least MinPasswordLength characters; PasswordStrength gives the 0-4 score
// shown by the signup form.
//
// # Errors
//
// Input problems and duplicate accounts are returned as *store.Error values
// (store.ErrValidation, store.ErrConflict) so the HTTP layer maps them the same
// way as store failures. Bad credentials are ErrInvalidCredentials.
package auth
