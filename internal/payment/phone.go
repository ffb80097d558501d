package payment

import (
	"regexp"
	"strings"
)

var kenyanMobile = regexp.MustCompile(`^254[17][0-9]{8}$`)

// NormalizePhone rewrites 07XXXXXXXX, +2547XXXXXXXX and 2547XXXXXXXX into
// the 2547XXXXXXXX form the STK push API expects.
func NormalizePhone(raw string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	if !kenyanMobile.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}
