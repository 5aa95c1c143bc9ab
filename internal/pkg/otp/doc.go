// Package otp generates time based one-time passwords for stored base32
// secrets and builds otpauth provisioning URIs for them.
package otp
