package source

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Locale returns the locale for messages of the current user, taken from
// LC_ALL, LC_MESSAGES or LANG in this order. It returns language.Und if none
// is set to a parseable locale.
func Locale() language.Tag {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag, ok := ParseLocale(os.Getenv(env)); ok {
			return tag
		}
	}
	return language.Und
}

// ParseLocale parses a POSIX locale such as "de_DE.UTF-8@euro".
func ParseLocale(posix string) (language.Tag, bool) {
	name, _, _ := strings.Cut(posix, ".")
	name, _, _ = strings.Cut(name, "@")
	if name == "" || name == "C" || name == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
