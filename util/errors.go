package util

import (
	"errors"
	"strings"
)

// Causes returns err followed by every error it wraps, outermost first.
// Joined errors contribute their first branch only.
func Causes(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			errs := joined.Unwrap()
			if len(errs) == 0 {
				break
			}
			err = errs[0]
			continue
		}
		err = errors.Unwrap(err)
	}
	return chain
}

// FormatCauses renders the cause chain of err, one cause per line.
func FormatCauses(err error) string {
	var b strings.Builder
	for i, cause := range Causes(err) {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString("  caused by: ")
		}
		b.WriteString(cause.Error())
	}
	return b.String()
}
