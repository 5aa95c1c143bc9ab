// Package otpuri classifies text scanned from an authenticator QR code and
// extracts the accounts it carries.
//
// Two schemes are understood: otpauth:// enrollment URIs holding a single
// account, and otpauth-migration:// export URIs holding a base64 encoded
// batch of accounts. Classify is a pure function and is safe for concurrent
// use.
package otpuri
