package otp

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrInvalidSecret is returned when a secret is not valid base32.
var ErrInvalidSecret = errors.New("otp: invalid base32 secret")

// OTP defines the contract for TOTP operations.
type OTP interface {
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
	// SecondsRemaining reports how long the code generated at the given time
	// stays valid.
	SecondsRemaining(at time.Time) int
	// ProvisioningURI builds an otpauth URI other authenticators can import.
	ProvisioningURI(label, secret string) string
}

// TOTP implements OTP using the Time-based One-Time Password algorithm with
// HMAC-SHA1.
type TOTP struct {
	issuer string
	period uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance with sensible defaults.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period.
func NewTOTP(issuer string, period uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		digits: digits,
	}
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if errors.Is(err, otp.ErrValidateSecretInvalidBase32) {
		return "", ErrInvalidSecret
	}
	if err != nil {
		return "", err
	}

	return code, nil
}

// SecondsRemaining reports the seconds left in the time step containing at.
func (o *TOTP) SecondsRemaining(at time.Time) int {
	period := int64(o.period)
	return int(period - at.Unix()%period)
}

// ProvisioningURI builds an otpauth://totp URI for label. The label is kept as
// given; its issuer part, if any, is not split off.
func (o *TOTP) ProvisioningURI(label, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	if o.issuer != "" {
		q.Set("issuer", o.issuer)
	}
	q.Set("algorithm", otp.AlgorithmSHA1.String())
	q.Set("digits", o.digits.String())
	q.Set("period", strconv.FormatUint(uint64(o.period), 10))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}

	return u.String()
}
