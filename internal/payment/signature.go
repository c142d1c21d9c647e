package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SigningProfile pins the signed-field list and secret encoding for one
// gateway protocol version. Field order is part of the protocol contract and
// is never normalized.
type SigningProfile struct {
	FieldNames []string
	// Base64Secret means the secret must be base64-decoded before keying the
	// HMAC. Mixing this up across profiles yields signatures the gateway
	// rejects, so it lives here and nowhere else.
	Base64Secret bool
}

// esewaEpayV2Profile signs the eSewa ePay v2 form fields with the raw secret.
var esewaEpayV2Profile = SigningProfile{
	FieldNames: []string{"total_amount", "transaction_uuid", "product_code"},
}

// SignedFieldNames returns the comma-joined field list as the gateway expects
// it declared alongside the signature.
func (p SigningProfile) SignedFieldNames() string {
	return strings.Join(p.FieldNames, ",")
}

// Sign computes base64(HMAC-SHA256(key, "f1=v1,f2=v2,...")) over the profile's
// fields in their protocol-fixed order. Deterministic: same values, key and
// order always produce the same signature.
func (p SigningProfile) Sign(values map[string]string, secret string) (string, error) {
	key := []byte(secret)
	if p.Base64Secret {
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return "", NewError(CodeInvalidConfig, "", "signing secret is not valid base64").WithCause(err)
		}
		key = decoded
	}

	pairs := make([]string, 0, len(p.FieldNames))
	for _, name := range p.FieldNames {
		pairs = append(pairs, name+"="+values[name])
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strings.Join(pairs, ",")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// ValidateSignature reports whether signature matches the profile's signature
// over values. Constant-time comparison.
func (p SigningProfile) ValidateSignature(signature string, values map[string]string, secret string) (bool, error) {
	expected, err := p.Sign(values, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(signature), []byte(expected)), nil
}
