package migration

// Algorithm is the HMAC algorithm recorded for an exported account.
type Algorithm int32

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmSHA1
	AlgorithmSHA256
	AlgorithmSHA512
	AlgorithmMD5
)

// String returns the algorithm name as used in otpauth URIs.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmSHA1:
		return "SHA1"
	case AlgorithmSHA256:
		return "SHA256"
	case AlgorithmSHA512:
		return "SHA512"
	case AlgorithmMD5:
		return "MD5"
	default:
		return "UNSPECIFIED"
	}
}

// DigitCount is the code length recorded for an exported account.
type DigitCount int32

const (
	DigitCountUnspecified DigitCount = iota
	DigitCountSix
	DigitCountEight
)

// Digits returns the numeric code length, or 0 when unspecified.
func (d DigitCount) Digits() int {
	switch d {
	case DigitCountSix:
		return 6
	case DigitCountEight:
		return 8
	default:
		return 0
	}
}

// OTPType tells counter based accounts apart from time based ones.
type OTPType int32

const (
	OTPTypeUnspecified OTPType = iota
	OTPTypeHOTP
	OTPTypeTOTP
)

// String returns the lower case type name as used in otpauth URIs.
func (t OTPType) String() string {
	switch t {
	case OTPTypeHOTP:
		return "hotp"
	case OTPTypeTOTP:
		return "totp"
	default:
		return "unspecified"
	}
}

// Parameter is one exported account.
type Parameter struct {
	Secret    []byte
	Name      string
	Issuer    string
	Algorithm Algorithm
	Digits    DigitCount
	Type      OTPType
	Counter   int64
}

// Payload is the decoded content of one migration QR code. Large exports are
// split across several codes; BatchSize and BatchIndex locate this one.
type Payload struct {
	Parameters []Parameter
	Version    int32
	BatchSize  int32
	BatchIndex int32
	BatchID    int32
}
