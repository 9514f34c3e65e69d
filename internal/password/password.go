// internal/password/password.go
//
// Password strength scoring and the feature-gated acceptance policy.
//
// Context
// -------
// Strength is the zxcvbn 0–4 score:
//
//	0 too guessable   1 weak   2 fair   3 good   4 strong
//
// zxcvbn estimates guesses against dictionaries, keyboard walks, dates,
// sequences and l33t substitutions, so "Password123!" scores as weak even
// though it mixes four character classes.
//
// Normal deployments require Good.  Demo deployments accept any password of
// at least eight characters so shared demo credentials stay simple.
//
// Notes
// -----
// • Callers pass the user's email and name as extra inputs; zxcvbn treats
//   them as a dictionary so "ada@example.com2024" is not strong for Ada.

package password

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/trustelem/zxcvbn"
)

// Thresholds on the Strength scale.
const (
	Fair   = 2
	Good   = 3
	Strong = 4
)

// Errors returned by Policy.Validate.
var (
	ErrTooShort = errors.New("password: must be at least 8 characters long")
	ErrTooWeak  = errors.New("password: too weak, use a stronger password")
)

var validate = validator.New()

// Strength scores pw from 0 to 4.  inputs are user-specific words that
// should not make a password stronger (email, name).
func Strength(pw string, inputs ...string) int {
	if pw == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(pw, userWords(inputs)).Score
}

// userWords splits emails at '@' and '.' so the local part counts too.
func userWords(inputs []string) []string {
	var out []string
	for _, in := range inputs {
		in = strings.ToLower(strings.TrimSpace(in))
		if in == "" {
			continue
		}
		out = append(out, in)
		for _, f := range strings.FieldsFunc(in, func(r rune) bool {
			return r == '@' || r == '.' || r == ' '
		}) {
			if len(f) > 2 && f != in {
				out = append(out, f)
			}
		}
	}
	return out
}

// Policy decides whether a new password is acceptable.
type Policy struct {
	DemoMode bool
}

// Validate returns nil when pw is acceptable.  inputs are passed to
// Strength.
func (p Policy) Validate(pw string, inputs ...string) error {
	if p.DemoMode {
		if err := validate.Var(pw, "min=8"); err != nil {
			return ErrTooShort
		}
		return nil
	}
	if Strength(pw, inputs...) < Good {
		return ErrTooWeak
	}
	return nil
}
