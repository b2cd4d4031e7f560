package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	rePhone = regexp.MustCompile(`^09[0-9]{8}$`)
	reStore = regexp.MustCompile(`^[0-9]{6}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// CustomerName accepts 2-20 runes of letters and inner spaces. Digits and
// symbols are rejected so typos like phone numbers don't land in the name field.
func CustomerName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 20 {
		return "", false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' {
			return "", false
		}
	}
	return s, true
}

// Phone normalizes common separators away and checks the local mobile format
// (leading 09 plus 8 digits). Returns the normalized number.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"-", " ", "(", ")", "."} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s, rePhone.MatchString(s)
}

// StoreCode checks the 6-digit pickup-store code format.
func StoreCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reStore.MatchString(s)
}

// Qty parses a positive quantity, clamped to a sane ceiling.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	if n > 99 {
		return 0, false
	}
	return n, true
}

// ID validates a simple resource identifier (product/category/option ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Tracking accepts a carrier tracking number: 5-30 alphanumerics.
func Tracking(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 5 || len(s) > 30 {
		return "", false
	}
	for _, r := range s {
		if !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return "", false
		}
	}
	return s, true
}
