package mockgen

import (
	"strconv"
	"strings"
	"text/template"
)

// pythonFuncs returns template functions for the Python templates. They keep
// quoting and escaping rules in Go rather than in template conditionals.
func pythonFuncs() template.FuncMap {
	return template.FuncMap{
		"pyString":                 pyString,
		"pyTemplate":               pyTripleQuoted,
		"handlerDoc":               handlerDoc,
		"missingCredentialMessage": missingCredentialMessage,
		"join":                     strings.Join,
	}
}

// --- Literals ---

// pyString returns s as a double-quoted Python string literal. Go's quoting
// only produces escapes Python also understands.
//
//	pyString(`say "hi"`) == `"say \"hi\""`
func pyString(s string) string {
	return strconv.Quote(s)
}

// pyTripleQuoted returns s as a triple-quoted Python string literal, keeping
// line breaks as written.
//
//	pyTripleQuoted("a\nb") == "\"\"\"a\nb\"\"\""
func pyTripleQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"""` + s + `"""`
}

// --- Comments ---

// handlerDoc returns the docstring of a handler.
//
//	"""POST /is_fluffy: Is the pet fluffy?"""
func handlerDoc(op *CompiledOperation) string {
	doc := upperCaser.String(op.Method) + " " + op.Route
	summary := op.Summary
	if summary == "" {
		summary, _, _ = strings.Cut(op.Description, "\n")
	}
	if summary = strings.TrimSpace(summary); summary != "" {
		doc += ": " + summary
	}
	return pyTripleQuoted(doc)
}

// missingCredentialMessage returns the error raised by the generated module
// when the credential environment variable is unset.
func missingCredentialMessage(envVar string) string {
	return "Please set your model API key as the " + envVar + " environment variable."
}
