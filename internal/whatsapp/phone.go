package whatsapp

import "strings"

// NormalizePhone turns a remote JID into the "+<digits>" form used for contact lookup.
// "31612345678@s.whatsapp.net" becomes "+31612345678". Device suffixes (":12") are dropped.
// It returns "" when no digits remain.
func NormalizePhone(remoteJID string) string {
	id := strings.TrimSpace(remoteJID)
	if i := strings.IndexByte(id, '@'); i >= 0 {
		id = id[:i]
	}
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[:i]
	}
	var b strings.Builder
	b.Grow(len(id) + 1)
	digits := 0
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+':
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return ""
	}
	return "+" + strings.TrimLeft(b.String(), "+")
}

// PhoneDigits strips the leading "+" from a normalized phone.
func PhoneDigits(phone string) string {
	return strings.TrimLeft(phone, "+")
}
