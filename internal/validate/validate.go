// Package validate holds the field checks applied to request bodies.
package validate

import (
	"regexp"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
	reCode  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Email trims s and checks it is a plausible address.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 255 {
		return "", false
	}
	return strings.ToLower(s), reEmail.MatchString(s)
}

// Name trims s and checks it is non-empty and at most 100 bytes.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Phone accepts an empty value; otherwise digits, spaces and ()+- only.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, rePhone.MatchString(s)
}

// SixDigitCode checks the shape of a one-time code.
func SixDigitCode(s string) bool {
	return reCode.MatchString(strings.TrimSpace(s))
}

// Errors collects messages for a single request.
type Errors []string

func (e *Errors) Add(msg string) {
	*e = append(*e, msg)
}

func (e Errors) Empty() bool { return len(e) == 0 }
