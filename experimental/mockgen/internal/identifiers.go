package mockgen

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// pythonIdentifier approximates Python's XID_Start XID_Continue* rule.
var pythonIdentifier = regexp.MustCompile(`^[\p{L}\p{Nl}_][\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}]*$`)

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// IsPythonIdentifier reports whether name can be used verbatim as a Python
// function, class or module name. Python reads identifiers in NFKC form, so
// "ｃｌａｓｓ" is the keyword class.
func IsPythonIdentifier(name string) bool {
	return pythonIdentifier.MatchString(name) && !pythonKeywords[norm.NFKC.String(name)]
}

var serviceNameInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// ServiceName derives a deployment service name from a document title:
// "Pet Fluffiness API" becomes "pet-fluffiness-api".
func ServiceName(title string) string {
	name := serviceNameInvalid.ReplaceAllString(lowerCaser.String(title), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "mock-api"
	}
	return name
}
