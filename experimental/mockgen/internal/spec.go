package mockgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	oasyaml "github.com/oasdiff/yaml"
	"gopkg.in/yaml.v3"
)

// operationMethods is the set of path item keys that declare operations.
// Other path item keys (parameters, servers, ...) are not operations.
var operationMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// methodOrder lists the operations of a referenced Path Item, whose target
// carries no document order of its own.
var methodOrder = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Specification is a parsed OpenAPI document. The YAML node tree is kept so
// that paths, methods and responses are visited in the order they were
// written; references are resolved on the kin-openapi model of the same
// document.
type Specification struct {
	// Path is the file the document was read from, empty for in-memory data.
	Path string
	// Title is info.title, empty when absent.
	Title string

	raw      []byte
	overlaid bool
	root     *yaml.Node // document node
	paths    *yaml.Node
	schemas  *yaml.Node // components.schemas, may be nil
	doc      *openapi3.T
}

// Operation is one HTTP method bound to one route.
type Operation struct {
	Route       string
	Method      string // lower case, as written in the document
	OperationID string
	Summary     string
	Description string

	node *yaml.Node
	item *openapi3.PathItem
	op   *openapi3.Operation
}

// String returns "METHOD /route".
func (o *Operation) String() string {
	return upperCaser.String(o.Method) + " " + o.Route
}

// LoadOption configures Load and LoadData.
type LoadOption func(*loadOptions)

type loadOptions struct {
	overlayPath string
	validate    bool
}

// WithOverlay applies the OpenAPI Overlay document at path before the
// specification is inspected.
func WithOverlay(path string) LoadOption {
	return func(o *loadOptions) {
		o.overlayPath = path
	}
}

// WithValidation validates the document as OpenAPI 3 in addition to the
// structural checks every load performs.
func WithValidation() LoadOption {
	return func(o *loadOptions) {
		o.validate = true
	}
}

// Load reads and parses the specification at path.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading specification: %w", err)
	}
	spec, err := LoadData(ctx, data, opts...)
	if err != nil {
		var me *MalformedSpecError
		if errors.As(err, &me) {
			me.Path = path
		}
		return nil, err
	}
	spec.Path = path
	return spec, nil
}

// LoadData parses a specification held in memory. YAML and JSON are both
// accepted.
func LoadData(ctx context.Context, data []byte, opts ...LoadOption) (*Specification, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedSpecError{Reason: "not valid YAML or JSON", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &MalformedSpecError{Reason: "document is empty"}
	}

	spec := &Specification{raw: data, root: &doc}

	if o.overlayPath != "" {
		if err := applyOverlay(&doc, o.overlayPath); err != nil {
			return nil, &MalformedSpecError{Reason: "applying overlay " + o.overlayPath, Err: err}
		}
		spec.overlaid = true
	}

	top := resolveAlias(doc.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, &MalformedSpecError{Reason: "document root is not a mapping"}
	}
	paths := mappingValue(top, "paths")
	if paths == nil {
		return nil, &MalformedSpecError{Reason: `missing "paths"`}
	}
	if paths.Kind != yaml.MappingNode {
		return nil, &MalformedSpecError{Reason: `"paths" is not a mapping`}
	}
	spec.paths = paths

	if schemas := mappingValue(mappingValue(top, "components"), "schemas"); schemas != nil {
		if schemas.Kind != yaml.MappingNode {
			return nil, &MalformedSpecError{Reason: `"components.schemas" is not a mapping`}
		}
		spec.schemas = schemas
	}
	spec.Title = scalarValue(mappingValue(top, "info"), "title")

	model, err := spec.Bytes()
	if err != nil {
		return nil, err
	}
	spec.doc = &openapi3.T{}
	if err := oasyaml.Unmarshal(model, spec.doc); err != nil {
		return nil, &MalformedSpecError{Reason: "not an OpenAPI document", Err: err}
	}
	if err := resolveRegistry(spec.doc); err != nil {
		return nil, err
	}

	if o.validate {
		data, err := spec.Bytes()
		if err != nil {
			return nil, err
		}
		if err := validateOpenAPI(ctx, data); err != nil {
			return nil, &MalformedSpecError{Reason: "OpenAPI validation failed", Err: err}
		}
	}

	return spec, nil
}

// Operations returns every operation in document order: paths first, then
// methods within each path. Operations without an operationId are included.
// A Path Item $ref is followed and its target's operations are listed in
// methodOrder; a target that does not resolve is an UnresolvedReferenceError.
func (s *Specification) Operations() ([]*Operation, error) {
	var ops []*Operation
	for _, path := range mappingPairs(s.paths) {
		if ref := scalarValue(path.Value, "$ref"); ref != "" {
			referenced, err := s.referencedOperations(path.Key, ref)
			if err != nil {
				return nil, err
			}
			ops = append(ops, referenced...)
			continue
		}
		item := s.doc.Paths.Value(path.Key)
		if item == nil {
			continue
		}
		for _, entry := range mappingPairs(path.Value) {
			if !operationMethods[entry.Key] || !isMapping(entry.Value) {
				continue
			}
			op := item.GetOperation(strings.ToUpper(entry.Key))
			if op == nil {
				continue
			}
			ops = append(ops, &Operation{
				Route:       path.Key,
				Method:      entry.Key,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Description: op.Description,
				node:        entry.Value,
				item:        item,
				op:          op,
			})
		}
	}
	return ops, nil
}

// referencedOperations resolves the Path Item $ref at route. The fragments of
// its operations are re-encoded from the resolved model.
func (s *Specification) referencedOperations(route, ref string) ([]*Operation, error) {
	item := &openapi3.PathItem{Ref: ref}
	if err := resolvePathItem(s.doc, route, item); err != nil {
		var ue *UnresolvedReferenceError
		if errors.As(err, &ue) {
			ue.Route = route
		}
		return nil, err
	}
	var ops []*Operation
	for _, method := range methodOrder {
		op := item.GetOperation(strings.ToUpper(method))
		if op == nil {
			continue
		}
		node := new(yaml.Node)
		if err := node.Encode(op); err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", strings.ToUpper(method), route, err)
		}
		ops = append(ops, &Operation{
			Route:       route,
			Method:      method,
			OperationID: op.OperationID,
			Summary:     op.Summary,
			Description: op.Description,
			node:        node,
			item:        item,
			op:          op,
		})
	}
	return ops, nil
}

// resolveOperation resolves every reference used by op, including the
// parameters of its path item.
func (s *Specification) resolveOperation(op *Operation) error {
	item := &openapi3.PathItem{Parameters: op.item.Parameters}
	item.SetOperation(strings.ToUpper(op.Method), op.op)
	if err := resolvePathItem(s.doc, op.Route, item); err != nil {
		var ue *UnresolvedReferenceError
		if errors.As(err, &ue) {
			ue.Route = op.Route
			ue.Method = op.Method
			ue.OperationID = op.OperationID
		}
		return err
	}
	return nil
}

// responseCodes returns the response keys of op in document order.
func (op *Operation) responseCodes() []string {
	pairs := mappingPairs(mappingValue(op.node, "responses"))
	codes := make([]string, 0, len(pairs))
	for _, p := range pairs {
		codes = append(codes, p.Key)
	}
	return codes
}

// SchemaNames returns the names in components.schemas in document order.
func (s *Specification) SchemaNames() []string {
	pairs := mappingPairs(s.schemas)
	names := make([]string, 0, len(pairs))
	for _, p := range pairs {
		names = append(names, p.Key)
	}
	return names
}

// HasSchema reports whether name is declared in components.schemas.
func (s *Specification) HasSchema(name string) bool {
	return mappingValue(s.schemas, name) != nil
}

// Overlaid reports whether an overlay changed the document after it was read.
func (s *Specification) Overlaid() bool {
	return s.overlaid
}

// Bytes returns the document as it was read, or re-encoded as YAML when an
// overlay was applied.
func (s *Specification) Bytes() ([]byte, error) {
	if !s.overlaid {
		return s.raw, nil
	}
	data, err := marshalYAML(s.root)
	if err != nil {
		return nil, fmt.Errorf("encoding overlaid specification: %w", err)
	}
	return data, nil
}
