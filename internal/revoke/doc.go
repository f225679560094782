// Package revoke keeps the ids of logged-out session tokens.
//
// Session tokens are stateless JWTs, so the only way to end one before its
// expiry is to remember its jti and refuse it. List holds those ids in memory
// until each token would have expired on its own; after that the signature
// check rejects the token anyway and the id can be forgotten.
//
// The list is process-local. Restarting the server forgets every revocation.
package revoke
