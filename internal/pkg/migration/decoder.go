package migration

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is matched by every DecodeError.
var ErrMalformed = errors.New("migration: malformed payload")

// Top level field numbers.
const (
	fieldOtpParameters protowire.Number = 1
	fieldVersion       protowire.Number = 2
	fieldBatchSize     protowire.Number = 3
	fieldBatchIndex    protowire.Number = 4
	fieldBatchID       protowire.Number = 5
)

// OtpParameters field numbers.
const (
	fieldSecret    protowire.Number = 1
	fieldName      protowire.Number = 2
	fieldIssuer    protowire.Number = 3
	fieldAlgorithm protowire.Number = 4
	fieldDigits    protowire.Number = 5
	fieldType      protowire.Number = 6
	fieldCounter   protowire.Number = 7
)

// DecodeError reports why a migration payload could not be read.
type DecodeError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("migration: %s: %v", e.Reason, e.Err)
	}
	return "migration: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformed.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}

func wireErr(reason string, n int) error {
	return &DecodeError{Reason: reason, Err: protowire.ParseError(n)}
}

// Decode parses a raw migration payload. A payload without any account is not
// an error; callers decide whether an empty export is acceptable.
func Decode(b []byte) (*Payload, error) {
	p := &Payload{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireErr("read payload tag", n)
		}
		b = b[n:]

		switch {
		case num == fieldOtpParameters && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, wireErr("read otp parameters", m)
			}
			param, err := decodeParameter(v)
			if err != nil {
				return nil, err
			}
			p.Parameters = append(p.Parameters, param)
			n = m

		case typ == protowire.VarintType && num >= fieldVersion && num <= fieldBatchID:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, wireErr("read batch field", m)
			}
			setBatchField(p, num, int32(v))
			n = m

		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireErr(fmt.Sprintf("skip payload field %d", num), n)
			}
		}

		b = b[n:]
	}

	return p, nil
}

func setBatchField(p *Payload, num protowire.Number, v int32) {
	switch num {
	case fieldVersion:
		p.Version = v
	case fieldBatchSize:
		p.BatchSize = v
	case fieldBatchIndex:
		p.BatchIndex = v
	case fieldBatchID:
		p.BatchID = v
	}
}

func decodeParameter(b []byte) (Parameter, error) {
	var param Parameter

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Parameter{}, wireErr("read parameter tag", n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && num >= fieldSecret && num <= fieldIssuer:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Parameter{}, wireErr(fmt.Sprintf("read parameter field %d", num), m)
			}
			switch num {
			case fieldSecret:
				// v aliases the caller's buffer.
				param.Secret = append([]byte(nil), v...)
			case fieldName:
				param.Name = string(v)
			case fieldIssuer:
				param.Issuer = string(v)
			}
			n = m

		case typ == protowire.VarintType && num >= fieldAlgorithm && num <= fieldCounter:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Parameter{}, wireErr(fmt.Sprintf("read parameter field %d", num), m)
			}
			switch num {
			case fieldAlgorithm:
				param.Algorithm = Algorithm(int32(v))
			case fieldDigits:
				param.Digits = DigitCount(int32(v))
			case fieldType:
				param.Type = OTPType(int32(v))
			case fieldCounter:
				param.Counter = int64(v)
			}
			n = m

		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Parameter{}, wireErr(fmt.Sprintf("skip parameter field %d", num), n)
			}
		}

		b = b[n:]
	}

	return param, nil
}
