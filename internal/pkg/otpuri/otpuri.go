package otpuri

import (
	"encoding/base32"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/pquerna/otp"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/migration"
)

const (
	SchemeSingle    = "otpauth://"
	SchemeMigration = "otpauth-migration://"

	dataMarker = "data="
)

var (
	// ErrUnsupportedScheme is returned for text that is neither an otpauth nor
	// an otpauth-migration URI.
	ErrUnsupportedScheme = errors.New("otpuri: unsupported scheme")
	// ErrMalformedURI is returned for an otpauth URI that cannot be registered.
	ErrMalformedURI = errors.New("otpuri: malformed otpauth uri")
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Kind tells which branch of Classify produced a Result.
type Kind int

const (
	KindInvalid Kind = iota
	KindSingle
	KindMigration
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMigration:
		return "migration"
	default:
		return "invalid"
	}
}

// Account is one recovered account. Secret is base32 text ready for storage.
type Account struct {
	Name   string
	Secret string
	Issuer string
	Type   migration.OTPType
}

// Result is the outcome of Classify.
type Result struct {
	Kind     Kind
	Accounts []Account
	// Skipped counts migration records dropped for having no secret.
	Skipped int
}

// URIError describes why an URI could not be used.
type URIError struct {
	URI    string
	Reason string
	Err    error
}

func (e *URIError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Reason
}

func (e *URIError) Unwrap() error {
	return e.Err
}

// Classify inspects raw and extracts its accounts. The returned Kind is set
// even when an error is returned, so callers can tell a corrupt migration
// export apart from text that is not an authenticator URI at all.
func Classify(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, SchemeSingle):
		acc, err := parseSingle(raw)
		if err != nil {
			return Result{Kind: KindSingle}, err
		}
		return Result{Kind: KindSingle, Accounts: []Account{acc}}, nil

	case strings.HasPrefix(raw, SchemeMigration):
		accounts, skipped, err := parseMigration(raw)
		if err != nil {
			return Result{Kind: KindMigration}, err
		}
		return Result{Kind: KindMigration, Accounts: accounts, Skipped: skipped}, nil

	default:
		return Result{Kind: KindInvalid}, &URIError{URI: raw, Err: ErrUnsupportedScheme}
	}
}

func parseSingle(raw string) (Account, error) {
	malformed := func(reason string) error {
		return &URIError{URI: raw, Reason: reason, Err: ErrMalformedURI}
	}

	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		return Account{}, malformed(err.Error())
	}

	if key.Type() != "totp" {
		return Account{}, malformed("type " + key.Type() + " is not supported")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Account{}, malformed(err.Error())
	}

	label := strings.TrimPrefix(u.Path, "/")
	if label == "" {
		return Account{}, malformed("missing label")
	}

	secret := key.Secret()
	if secret == "" {
		return Account{}, malformed("missing secret")
	}
	if !validSecret(secret) {
		return Account{}, malformed("invalid base32 secret")
	}

	return Account{
		Name:   label,
		Secret: secret,
		Issuer: key.Issuer(),
		Type:   migration.OTPTypeTOTP,
	}, nil
}

// validSecret accepts what the TOTP generator accepts: base32 in any case,
// with or without padding.
func validSecret(secret string) bool {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if n := len(secret) % 8; n != 0 {
		secret += strings.Repeat("=", 8-n)
	}
	_, err := base32.StdEncoding.DecodeString(secret)
	return err == nil
}

func parseMigration(raw string) ([]Account, int, error) {
	data, err := extractData(raw)
	if err != nil {
		return nil, 0, err
	}

	payload, err := migration.Decode(data)
	if err != nil {
		return nil, 0, err
	}

	accounts := make([]Account, 0, len(payload.Parameters))
	skipped := 0
	for _, p := range payload.Parameters {
		if len(p.Secret) == 0 {
			skipped++
			continue
		}
		accounts = append(accounts, Account{
			Name:   p.Name,
			Secret: secretEncoding.EncodeToString(p.Secret),
			Issuer: p.Issuer,
			Type:   p.Type,
		})
	}

	return accounts, skipped, nil
}

// extractData returns the raw bytes of the data= query value. Both base64
// alphabets are accepted and missing padding is restored.
func extractData(raw string) ([]byte, error) {
	_, value, ok := strings.Cut(raw, dataMarker)
	if !ok {
		return nil, &migration.DecodeError{Reason: "missing data parameter"}
	}
	value, _, _ = strings.Cut(value, "&")

	value, err := url.PathUnescape(value)
	if err != nil {
		return nil, &migration.DecodeError{Reason: "unescape data parameter", Err: err}
	}

	value = strings.NewReplacer("-", "+", "_", "/").Replace(value)
	value = strings.TrimRight(value, "=")
	if value == "" {
		return nil, &migration.DecodeError{Reason: "empty data parameter"}
	}

	if rem := len(value) % 4; rem != 0 {
		value += strings.Repeat("=", 4-rem)
	}

	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, &migration.DecodeError{Reason: "decode base64 data", Err: err}
	}

	return b, nil
}
