// Package validate holds the cheap post-match checks a rule can request via
// its validator field. They run after the regex matched and before a finding
// is emitted, cutting obvious false positives.
package validate

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Check dispatches on the validator name declared by a rule. Unknown names
// are rejected at rule load time, so the default arm only covers the empty
// string.
func Check(kind, candidate string) bool {
	switch kind {
	case "base64":
		return IsBase64Std(candidate)
	case "hex":
		return IsHex(candidate)
	case "jwt":
		return IsJWTStructure(candidate)
	default:
		return true
	}
}

// IsAlphabet returns true if all characters in s are in the allowed set.
func IsAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// IsBase64URLNoPad reports whether s is valid base64url without padding,
// the encoding JWT segments use.
func IsBase64URLNoPad(s string) bool {
	if s == "" {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

// IsBase64Std reports whether s is valid standard base64, padded or not.
func IsBase64Std(s string) bool {
	if s == "" {
		return false
	}
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return true
	}
	_, err := base64.RawStdEncoding.DecodeString(s)
	return err == nil
}

// IsHex returns true if s is valid even-length hex.
func IsHex(s string) bool {
	if s == "" || len(s)%2 == 1 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsJWTStructure verifies the three-segment shape of a JWT: header and
// payload must decode as base64url; the signature may be empty (unsigned
// tokens) and is not decoded.
func IsJWTStructure(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	return IsBase64URLNoPad(parts[0]) && IsBase64URLNoPad(parts[1])
}
