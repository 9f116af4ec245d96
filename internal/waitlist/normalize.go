package waitlist

import (
	"regexp"
	"strings"
	"waitlist/pkg/serrors"
)

// User facing validation messages.
const (
	MsgEmailMissing = "E-Mail-Adresse fehlt."
	MsgEmailInvalid = "Ungültige E-Mail-Adresse."
)

// emailPattern is deliberately loose: one @, no whitespace, a dot in the domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases raw and checks that the result looks
// like an email address. Failures are ErrBadRequest errors whose message can
// be shown to the user as is.
func NormalizeEmail(raw string) (string, error) {
	if raw == "" {
		return "", serrors.With(serrors.ErrBadRequest, MsgEmailMissing)
	}

	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", serrors.With(serrors.ErrBadRequest, MsgEmailInvalid)
	}

	return email, nil
}
