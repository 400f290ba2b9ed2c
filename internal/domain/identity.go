package domain

import "strings"

// Identity is the canonical, digits-only key derived from a raw channel
// address. It is the map key for every piece of per-sender state.
type Identity string

// NormalizeIdentity canonicalizes a raw channel address. Channel suffixes
// (everything from the first '@'), a leading '+', and separator punctuation
// are stripped; an 11-digit number starting with 8 is rewritten to the 7
// country-code form so both variants compare equal. Returns false when the
// input contains no digits at all.
func NormalizeIdentity(raw string) (Identity, bool) {
	if at := strings.IndexByte(raw, '@'); at >= 0 {
		raw = raw[:at]
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "+")

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", false
	}
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	return Identity(digits), true
}

// String returns the identity as a plain string.
func (i Identity) String() string {
	return string(i)
}
