/*
Package pkp provides signing capabilities for delegated key-pairs.

A delegated key-pair is a wallet whose private key is held by a signing
service rather than by the caller. Consumers never see the private half;
they hand bytes to a Signer and get a signature back:

	sig, err := signer.Sign(ctx, msg)

Two implementations are included:

  - Local keeps the key in process. It is meant for development and tests,
    and can be loaded from a PKCS8 PEM file or derived from a BIP-39 mnemonic.
  - Remote talks to an external signing service over HTTP.

Signatures use the JWS encodings for the key's algorithm (raw Ed25519 for
EdDSA, R||S for ES256), so they can be embedded directly into a compact
credential.

AddressOf derives the key identity: a 20-byte address taken from the
Keccak-256 hash of the raw public key.
*/
package pkp
