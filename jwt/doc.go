// Package jwt signs and verifies the bearer tokens handed out by linkauth.
//
// Each token class (access, refresh) owns its own key pair through a
// [Signer]. A [Codec] pairs the two signers and is the only place that
// knows the claim schema, the max-age of each class and the wire form.
//
// # Verification order
//
// Structure is decoded first, then the signature is checked against the
// class public key, then expiry is checked against the injected clock.
// Claims are never trusted before the signature has been verified.
//
// # What this package must NOT do
//
//   - Touch the session store or any other I/O.
//   - Read the wall clock directly; time always comes from Config.Now.
package jwt
