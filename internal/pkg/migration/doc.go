// Package migration decodes the binary payload carried by authenticator
// "export accounts" QR codes (otpauth-migration://offline?data=...).
//
// The payload is a small tag/length encoded message: a repeated list of OTP
// parameter records followed by batch metadata. Decoding is a direct scan over
// the wire format; field numbers this package does not know are skipped so
// newer exporters keep working.
package migration
