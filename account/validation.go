package account

import (
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse numbers without a country prefix
const DefaultPhoneRegion = "BR"

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[@$!%*?&]`)
	charsetRe = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
)

// passwordRules is the password policy: at least 8 characters with a
// lower, an upper, a digit and one of @$!%*?&, nothing else allowed.
var passwordRules = []validation.Rule{
	validation.Required,
	validation.Match(lowerRe),
	validation.Match(upperRe),
	validation.Match(digitRe),
	validation.Match(specialRe),
	validation.Match(charsetRe),
}

// field pairs a wire name with its value for ordered required checks
type field struct {
	name  string
	value string
}

// firstMissing returns the name of the first field that is empty or only
// whitespace
func firstMissing(fields ...field) (string, bool) {
	for _, f := range fields {
		if err := validation.Validate(strings.TrimSpace(f.value), validation.Required); err != nil {
			return f.name, true
		}
	}
	return "", false
}

// ValidPassword reports whether password satisfies the policy
func ValidPassword(password string) bool {
	return validation.Validate(password, passwordRules...) == nil
}

// ValidEmail checks the address format without network lookups
func ValidEmail(email string) bool {
	return validation.Validate(email, validation.Required, is.EmailFormat) == nil
}

// NormalizeFone accepts numbers with 10 to 15 digits. Numbers that parse
// for region are returned in E.164, others are returned trimmed.
func NormalizeFone(raw, region string) (string, bool) {
	digits := 0
	for _, r := range raw {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			digits++
		}
	}

	if digits < 10 || digits > 15 {
		return "", false
	}

	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err == nil && phonenumbers.IsPossibleNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164), true
	}

	return strings.TrimSpace(raw), true
}
