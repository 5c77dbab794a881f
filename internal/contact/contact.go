package contact

import "strings"

// NormalizePhone reduces a phone number to a canonical form: digits only,
// with a single leading plus when the input carried one. Spacing, dashes
// and parentheses are dropped.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if plus {
		return "+" + digits
	}
	return digits
}

// ConversationID derives the stable conversation id for a counterparty.
// Two inputs that normalize to the same phone number always map to the
// same id, which is what the store merges on across polls.
func ConversationID(phone string) string {
	return NormalizePhone(phone)
}

// ResolveDisplayName picks the name shown for a counterparty. The chain is
// strict: saved contact override, then the remote display name, then the
// remote profile name, then the raw phone number. A step is skipped when it
// is empty or just echoes the phone number back.
func ResolveDisplayName(override, displayName, profileName, phone string) string {
	for _, candidate := range []string{override, displayName, profileName} {
		if candidate != "" && candidate != phone {
			return candidate
		}
	}
	return phone
}
