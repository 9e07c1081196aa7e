package mockgen

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ResponseSchemaPolicy selects the governing response schema of an operation
// whose responses reference more than one schema.
type ResponseSchemaPolicy string

const (
	// ResponseSchemaLast selects the last schema in document order and
	// reports a warning when the choice was ambiguous.
	ResponseSchemaLast ResponseSchemaPolicy = "last"
	// ResponseSchemaSuccess selects the first schema of a 2xx response and
	// falls back to ResponseSchemaLast when no success response has one.
	ResponseSchemaSuccess ResponseSchemaPolicy = "success"
	// ResponseSchemaStrict fails with AmbiguousResponseSchemaError.
	ResponseSchemaStrict ResponseSchemaPolicy = "strict"
)

// Valid reports whether p is a known policy.
func (p ResponseSchemaPolicy) Valid() bool {
	switch p {
	case ResponseSchemaLast, ResponseSchemaSuccess, ResponseSchemaStrict:
		return true
	}
	return false
}

// CompiledOperation is the resolved form of one operation, ready to render.
type CompiledOperation struct {
	OperationID string
	Route       string
	Method      string // lower case
	Summary     string
	Description string

	// Template is the prompt template text. It contains exactly two
	// placeholders, {event} and {format_instructions}; every other brace is
	// doubled.
	Template string

	// RequestSchema names the request body schema, empty when there is none.
	RequestSchema string
	// ResponseSchema names the schema that governs the output parser, empty
	// when no response references a component schema.
	ResponseSchema string
	// SchemaNames are the schemas referenced by the request body and all
	// responses, sorted. They are imported from the types module.
	SchemaNames []string
	// Dependencies are the other schemas reached through references, in
	// first-seen order. They appear in the template but are not imported.
	Dependencies []string
}

// Diagnostic is a non-fatal finding about an operation.
type Diagnostic struct {
	Route       string
	Method      string
	OperationID string
	Message     string
}

func (d Diagnostic) String() string {
	s := upperCaser.String(d.Method) + " " + d.Route
	if d.OperationID != "" {
		s += " (" + d.OperationID + ")"
	}
	return s + ": " + d.Message
}

// CompileOptions configures a Compiler.
type CompileOptions struct {
	// ContentTypes selects the media types that contribute schemas. Nil uses
	// DefaultContentTypes.
	ContentTypes *ContentTypeMatcher
	// ResponseSchemaPolicy defaults to ResponseSchemaLast.
	ResponseSchemaPolicy ResponseSchemaPolicy
	Logger               *zap.Logger
}

// Compiler turns the operations of a specification into CompiledOperations.
type Compiler struct {
	spec        *Specification
	matcher     *ContentTypeMatcher
	policy      ResponseSchemaPolicy
	logger      *zap.Logger
	diagnostics []Diagnostic
}

// NewCompiler creates a compiler for spec.
func NewCompiler(spec *Specification, opts CompileOptions) *Compiler {
	c := &Compiler{
		spec:    spec,
		matcher: opts.ContentTypes,
		policy:  opts.ResponseSchemaPolicy,
		logger:  opts.Logger,
	}
	if c.matcher == nil {
		c.matcher = NewContentTypeMatcher(DefaultContentTypes())
	}
	if c.policy == "" {
		c.policy = ResponseSchemaLast
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Compile compiles every operation in document order. Operations without an
// operationId are skipped and reported through Diagnostics. Any reference
// that does not resolve aborts compilation.
func (c *Compiler) Compile() ([]*CompiledOperation, error) {
	c.diagnostics = nil
	ops, err := c.spec.Operations()
	if err != nil {
		return nil, err
	}
	var compiled []*CompiledOperation
	for _, op := range ops {
		if op.OperationID == "" {
			c.warn(op, "skipping operation without operationId")
			continue
		}
		cop, err := c.compileOperation(op)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cop)
	}
	c.logger.Debug("compiled operations", zap.Int("count", len(compiled)))
	return compiled, nil
}

// Diagnostics returns the non-fatal findings of the last Compile call.
func (c *Compiler) Diagnostics() []Diagnostic {
	return c.diagnostics
}

func (c *Compiler) warn(op *Operation, msg string, fields ...zap.Field) {
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Route:       op.Route,
		Method:      op.Method,
		OperationID: op.OperationID,
		Message:     msg,
	})
	fields = append([]zap.Field{
		zap.String("method", upperCaser.String(op.Method)),
		zap.String("route", op.Route),
	}, fields...)
	c.logger.Warn(msg, fields...)
}

// responseSchema is a schema referenced by one response.
type responseSchema struct {
	Status string
	Name   string
}

func (c *Compiler) compileOperation(op *Operation) (*CompiledOperation, error) {
	if !IsPythonIdentifier(op.OperationID) {
		return nil, &InvalidIdentifierError{Kind: "operationId", Name: op.OperationID, Route: op.Route, Method: op.Method}
	}

	if err := c.spec.resolveOperation(op); err != nil {
		return nil, err
	}

	var request string
	if body := op.op.RequestBody; body != nil && body.Value != nil {
		if names := contentSchemas(body.Value.Content, c.matcher); len(names) > 0 {
			request = names[0]
		}
	}

	codes := op.responseCodes()
	var responses []responseSchema
	for _, code := range codes {
		resp := op.op.Responses.Value(code)
		if resp == nil || resp.Value == nil {
			continue
		}
		for _, name := range contentSchemas(resp.Value.Content, c.matcher) {
			responses = append(responses, responseSchema{Status: code, Name: name})
		}
	}

	response, err := c.selectResponseSchema(op, responses)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	if request != "" {
		names[request] = true
	}
	for _, r := range responses {
		names[r.Name] = true
	}
	schemaNames := make([]string, 0, len(names))
	for name := range names {
		schemaNames = append(schemaNames, name)
	}
	sort.Strings(schemaNames)
	for _, name := range schemaNames {
		if !IsPythonIdentifier(name) {
			return nil, &InvalidIdentifierError{Kind: "schema", Name: name, Route: op.Route, Method: op.Method}
		}
	}

	reached := newSchemaCollector()
	reached.operation(op.item, op.op, codes)
	var deps []string
	for _, name := range reached.names {
		if name != request && name != response {
			deps = append(deps, name)
		}
	}

	template, err := buildTemplate(c.spec, op, request, response, deps)
	if err != nil {
		return nil, fmt.Errorf("assembling template for %s: %w", op.OperationID, err)
	}

	return &CompiledOperation{
		OperationID:    op.OperationID,
		Route:          op.Route,
		Method:         op.Method,
		Summary:        op.Summary,
		Description:    op.Description,
		Template:       template,
		RequestSchema:  request,
		ResponseSchema: response,
		SchemaNames:    schemaNames,
		Dependencies:   deps,
	}, nil
}

// selectResponseSchema applies the response schema policy.
func (c *Compiler) selectResponseSchema(op *Operation, responses []responseSchema) (string, error) {
	if len(responses) == 0 {
		return "", nil
	}

	var distinct []string
	for _, r := range responses {
		if !slices.Contains(distinct, r.Name) {
			distinct = append(distinct, r.Name)
		}
	}
	last := responses[len(responses)-1].Name
	if len(distinct) == 1 {
		return last, nil
	}

	switch c.policy {
	case ResponseSchemaStrict:
		return "", &AmbiguousResponseSchemaError{OperationID: op.OperationID, Schemas: distinct}
	case ResponseSchemaSuccess:
		for _, r := range responses {
			if strings.HasPrefix(r.Status, "2") {
				return r.Name, nil
			}
		}
	}

	c.warn(op, "responses reference more than one schema; using the last one",
		zap.Strings("schemas", distinct), zap.String("selected", last))
	return last, nil
}

// Compile compiles spec with a new Compiler and returns its diagnostics.
func Compile(spec *Specification, opts CompileOptions) ([]*CompiledOperation, []Diagnostic, error) {
	c := NewCompiler(spec, opts)
	ops, err := c.Compile()
	return ops, c.Diagnostics(), err
}
