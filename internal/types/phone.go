package types

import (
	"regexp"
	"strings"
)

var (
	frLocalPhone   = regexp.MustCompile(`^0\d{9}$`)
	frIntlNoPlus   = regexp.MustCompile(`^33\d{9}$`)
	phoneSeparator = strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "")
)

// NormalizePhoneE164 converts French numbers to E.164. "0612345678" and
// "33612345678" both become "+33612345678"; "+33612345678" is kept. Anything
// else returns "" so callers omit the phone.
func NormalizePhoneE164(raw string) string {
	p := phoneSeparator.Replace(strings.TrimSpace(raw))
	switch {
	case frLocalPhone.MatchString(p):
		return "+33" + p[1:]
	case frIntlNoPlus.MatchString(p):
		return "+" + p
	case strings.HasPrefix(p, "+") && frIntlNoPlus.MatchString(p[1:]):
		return p
	}
	return ""
}
