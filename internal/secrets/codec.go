package secrets

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Sensitive configuration field names subject to encode/decode. Fields
// outside this list pass through both directions untouched.
var sensitiveFields = map[string]bool{
	"api_key":          true,
	"api_token":        true,
	"merchant_account": true,
	"merchant_id":      true,
	"vendor_id":        true,
	"client_key":       true,
}

// Error codes
const (
	ErrEncodingFailure = "encoding_failure"
	ErrDecodingFailure = "decoding_failure"
)

// CodecError is a structured encode/decode failure.
type CodecError struct {
	Code    string
	Message string
}

func (e *CodecError) Error() string {
	return e.Code + ": " + e.Message
}

// Codec performs the reversible, deterministic transform applied to
// sensitive configuration values before they reach persistent storage.
// It is an obfuscation layer, not encryption: callers rely on the exact
// reversibility (IsEncoded, double-encode detection), so it must not be
// upgraded to a keyed cipher.
type Codec struct{}

func NewCodec() *Codec { return &Codec{} }

// Encode transforms plaintext into its stored form.
func (c *Codec) Encode(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", &CodecError{
			Code:    ErrEncodingFailure,
			Message: "value is not valid UTF-8 text",
		}
	}
	return base64.StdEncoding.EncodeToString([]byte(text)), nil
}

// Decode is the exact inverse of Encode.
func (c *Codec) Decode(text string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", &CodecError{
			Code:    ErrDecodingFailure,
			Message: fmt.Sprintf("value is not valid encoded text: %v", err),
		}
	}
	if !utf8.Valid(raw) {
		return "", &CodecError{
			Code:    ErrDecodingFailure,
			Message: "decoded value is not valid UTF-8 text",
		}
	}
	return string(raw), nil
}

// IsEncoded heuristically reports whether text is already in encoded
// form: a clean decode that produces something other than the input.
func (c *Codec) IsEncoded(text string) bool {
	if text == "" {
		return false
	}
	decoded, err := c.Decode(text)
	return err == nil && decoded != text
}

// IsSensitiveField reports whether a config field name is on the
// allow-list of encoded fields.
func IsSensitiveField(name string) bool {
	return sensitiveFields[name]
}

// EncodeFields returns a copy of fields with every allow-listed value
// encoded. Values that already look encoded are kept as-is so a record
// re-saved from a read-back form does not get double-encoded. Any
// encoding failure aborts the whole operation; write paths must not
// persist half-encoded records.
func (c *Codec) EncodeFields(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		if !sensitiveFields[name] || value == "" || c.IsEncoded(value) {
			out[name] = value
			continue
		}
		enc, err := c.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", name, err)
		}
		out[name] = enc
	}
	return out, nil
}

// DecodeFields returns a copy of fields with every allow-listed value
// decoded. A field that fails to decode keeps its stored value: during
// a migration window a field may legitimately still be plaintext, so
// decode is best-effort by design rather than strict.
func (c *Codec) DecodeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		if !sensitiveFields[name] || value == "" {
			out[name] = value
			continue
		}
		dec, err := c.Decode(value)
		if err != nil {
			log.Warn().
				Str("field", name).
				Err(err).
				Msg("credential field failed to decode, keeping stored value")
			out[name] = value
			continue
		}
		out[name] = dec
	}
	return out
}
