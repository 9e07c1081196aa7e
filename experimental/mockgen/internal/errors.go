package mockgen

import (
	"fmt"
	"strings"
)

// MalformedSpecError reports an input document that is not structured data or
// lacks the structure the generator needs (a "paths" mapping).
type MalformedSpecError struct {
	Path   string // source file, empty for in-memory documents
	Reason string
	Err    error
}

func (e *MalformedSpecError) Error() string {
	var b strings.Builder
	b.WriteString("malformed specification")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedSpecError) Unwrap() error {
	return e.Err
}

// UnresolvedReferenceError reports a $ref that does not point at an existing
// entry of the document. Route is empty when the reference sits in
// components; Method is empty for a Path Item $ref.
type UnresolvedReferenceError struct {
	Ref         string
	Route       string
	Method      string
	OperationID string
	Reason      string
}

func (e *UnresolvedReferenceError) Error() string {
	msg := fmt.Sprintf("unresolved reference %q in ", e.Ref)
	switch {
	case e.Route == "":
		msg += "components"
	case e.Method == "":
		msg += "path item " + e.Route
	default:
		msg += strings.ToUpper(e.Method) + " " + e.Route
	}
	if e.OperationID != "" {
		msg += " (operationId " + e.OperationID + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// DuplicateOperationIDError reports two operations sharing an operationId.
// Function names in the deployment manifest must be unique.
type DuplicateOperationIDError struct {
	OperationID string
	First       string // "POST /is_fluffy"
	Second      string
}

func (e *DuplicateOperationIDError) Error() string {
	return fmt.Sprintf("duplicate operationId %q: used by %s and %s", e.OperationID, e.First, e.Second)
}

// AmbiguousResponseSchemaError is returned under the strict response schema
// policy when an operation's responses reference more than one schema.
type AmbiguousResponseSchemaError struct {
	OperationID string
	Schemas     []string
}

func (e *AmbiguousResponseSchemaError) Error() string {
	return fmt.Sprintf("operation %s references %d response schemas (%s); exactly one is allowed",
		e.OperationID, len(e.Schemas), strings.Join(e.Schemas, ", "))
}

// InvalidIdentifierError reports an operationId or schema name that cannot be
// used as a Python identifier in the generated module.
type InvalidIdentifierError struct {
	Kind   string // "operationId" or "schema"
	Name   string
	Route  string
	Method string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("%s %q in %s %s is not a valid Python identifier",
		e.Kind, e.Name, strings.ToUpper(e.Method), e.Route)
}

// MalformedManifestError reports a base deployment manifest that is not a
// well-formed manifest document.
type MalformedManifestError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedManifestError) Error() string {
	msg := "malformed base manifest"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedManifestError) Unwrap() error {
	return e.Err
}

// TypesGenerationError reports a failed run of the external type-definitions
// generator.
type TypesGenerationError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *TypesGenerationError) Error() string {
	msg := fmt.Sprintf("types generator %s failed: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *TypesGenerationError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
