package entity

// Source tells where a registration came from.
type Source string

const (
	SourceImage Source = "image"
	SourceURI   Source = "uri"
)

func (s Source) String() string {
	return string(s)
}

// RegistrationKind is the shape of the URI that produced a registration.
type RegistrationKind string

const (
	RegistrationSingle    RegistrationKind = "single"
	RegistrationMigration RegistrationKind = "migration"
)

// Account is a registry entry. Name is the unique key.
type Account struct {
	Name   string
	Secret string
}

// SkipReason explains why a migrated record was not registered.
type SkipReason string

const (
	SkipEmptyName   SkipReason = "empty_name"
	SkipEmptySecret SkipReason = "empty_secret"
	SkipNotTOTP     SkipReason = "not_totp"
)
