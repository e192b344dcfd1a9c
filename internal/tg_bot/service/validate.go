package service

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

const (
	birthdayLayout    = "2006-01-02"
	minPasswordLength = 8
)

func validateName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", userErrorf("The name can not be empty.")
	}
	if utf8.RuneCountInString(s) > maxNameLength {
		return "", userErrorf("The name is longer than %d characters.", maxNameLength)
	}
	return s, nil
}

// isUsername accepts letters, digits, dots and underscores. Dots and
// underscores may not lead, trail or repeat.
func isUsername(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	prevSep := true
	for _, r := range s {
		sep := r == '.' || r == '_'
		switch {
		case sep:
			if prevSep {
				return false
			}
		case r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)):
			return false
		}
		prevSep = sep
	}
	return !prevSep
}

func isEmail(s string) bool {
	return govalidator.IsEmail(s)
}

func isBirthday(s string, now time.Time) bool {
	t, err := time.Parse(birthdayLayout, s)
	return err == nil && t.Before(now)
}

func isPostCode(s string) bool {
	return govalidator.IsNumeric(s) && govalidator.IsByteLength(s, 3, 10)
}

func isPhone(s string) bool {
	return govalidator.IsE164(s)
}

// normalizeCardNumber strips the spaces and dashes people type between digit
// groups.
func normalizeCardNumber(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// isCardNumber checks the digits and the Luhn checksum.
func isCardNumber(s string) bool {
	return govalidator.IsNumeric(s) && govalidator.IsCreditCard(s)
}

func isCardExpiry(s string) bool {
	return expiryPattern.MatchString(s)
}

func isCVC(s string) bool {
	return cvcPattern.MatchString(s)
}

// isWeakPassword reports passwords that are short or use a single class of
// characters.
func isWeakPassword(s string) bool {
	if utf8.RuneCountInString(s) < minPasswordLength {
		return true
	}
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}
	classes := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			classes++
		}
	}
	return classes < 3
}

// parseWebsites splits a comma separated list of sites into URLs.
func parseWebsites(s string) ([]string, bool) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		u := domainToURL(part)
		if !govalidator.IsURL(u) || getDomain(u) == "" {
			return nil, false
		}
		out = append(out, u)
	}
	return out, len(out) > 0
}

// domainToURL adds a scheme to a bare domain.
func domainToURL(s string) string {
	if strings.Contains(s, "://") {
		return s
	}
	return "https://" + s
}

// getDomain returns the host of a site without the www. prefix.
func getDomain(site string) string {
	u, err := url.Parse(domainToURL(site))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// detectNameFromDomain turns "accounts.google.com" into "Google".
func detectNameFromDomain(site string) string {
	domain := getDomain(site)
	if domain == "" {
		return site
	}
	labels := strings.Split(domain, ".")
	name := labels[0]
	if len(labels) >= 2 {
		name = labels[len(labels)-2]
	}
	if name == "" {
		return domain
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// shortenAddress keeps the head and the tail of an address.
func shortenAddress(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:8] + "..." + s[len(s)-6:]
}
