package mockgen

import (
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/jsonpointer"
)

// schemaRefName returns the schema name for a "#/components/schemas/<Name>"
// reference. References into a schema ("#/components/schemas/Pet/properties/id")
// do not name a schema.
func schemaRefName(ref string) (string, bool) {
	fragment, ok := strings.CutPrefix(ref, "#")
	if !ok {
		return "", false
	}
	pointer, err := jsonpointer.New(fragment)
	if err != nil {
		return "", false
	}
	tokens := pointer.DecodedTokens()
	if len(tokens) != 3 || tokens[0] != "components" || tokens[1] != "schemas" || tokens[2] == "" {
		return "", false
	}
	return tokens[2], true
}

// newRefLoader returns a loader that resolves references within the document
// and rejects references to other documents.
func newRefLoader() *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	return loader
}

// resolveRegistry resolves the references between the components of doc. It
// runs once per document; operations resolve against the result.
func resolveRegistry(doc *openapi3.T) error {
	if doc.Components == nil {
		return nil
	}
	registry := &openapi3.T{OpenAPI: doc.OpenAPI, Components: doc.Components, Paths: openapi3.NewPaths()}
	if err := newRefLoader().ResolveRefsIn(registry, nil); err != nil {
		return referenceError(err)
	}
	return nil
}

// resolvePathItem resolves every reference of item as if it were the only
// path of doc. A Path Item $ref is replaced by its target.
func resolvePathItem(doc *openapi3.T, route string, item *openapi3.PathItem) error {
	scoped := &openapi3.T{
		OpenAPI:    doc.OpenAPI,
		Components: doc.Components,
		Paths:      openapi3.NewPaths(openapi3.WithPath(route, item)),
	}
	if err := newRefLoader().ResolveRefsIn(scoped, nil); err != nil {
		return referenceError(err)
	}
	return nil
}

// loaderRef extracts the offending reference from a loader error. The loader
// reports it only as a quoted string in its message.
var loaderRef = regexp.MustCompile(`(?:URI|reference|data in):? "([^"]+)"`)

func referenceError(err error) *UnresolvedReferenceError {
	ue := &UnresolvedReferenceError{Reason: err.Error()}
	if m := loaderRef.FindStringSubmatch(err.Error()); m != nil {
		ue.Ref = m[1]
	}
	return ue
}

// contentSchemas returns the names of the component schemas referenced by the
// accepted media types of content, in media type order.
func contentSchemas(content openapi3.Content, matcher *ContentTypeMatcher) []string {
	var names []string
	for _, mediaType := range sortedKeys(content) {
		if !matcher.Matches(mediaType) {
			continue
		}
		if media := content[mediaType]; media != nil && media.Schema != nil {
			if name, ok := schemaRefName(media.Schema.Ref); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// schemaCollector records the component schemas reachable from an operation,
// in first-seen order. It walks the resolved model and never loops on
// recursive schemas.
type schemaCollector struct {
	seen  map[string]bool
	names []string
}

func newSchemaCollector() *schemaCollector {
	return &schemaCollector{seen: make(map[string]bool)}
}

func (c *schemaCollector) operation(item *openapi3.PathItem, op *openapi3.Operation, responseCodes []string) {
	if item != nil {
		c.parameters(item.Parameters)
	}
	c.parameters(op.Parameters)
	if body := op.RequestBody; body != nil && body.Value != nil {
		c.content(body.Value.Content)
	}
	for _, code := range responseCodes {
		if resp := op.Responses.Value(code); resp != nil && resp.Value != nil {
			c.content(resp.Value.Content)
		}
	}
}

func (c *schemaCollector) parameters(params openapi3.Parameters) {
	for _, p := range params {
		if p != nil && p.Value != nil {
			c.schema(p.Value.Schema)
			c.content(p.Value.Content)
		}
	}
}

func (c *schemaCollector) content(content openapi3.Content) {
	for _, mediaType := range sortedKeys(content) {
		if media := content[mediaType]; media != nil {
			c.schema(media.Schema)
		}
	}
}

func (c *schemaCollector) schema(ref *openapi3.SchemaRef) {
	if ref == nil {
		return
	}
	if ref.Ref != "" {
		if c.seen[ref.Ref] {
			return
		}
		c.seen[ref.Ref] = true
		if name, ok := schemaRefName(ref.Ref); ok {
			c.names = append(c.names, name)
		}
	}
	s := ref.Value
	if s == nil {
		return
	}
	c.schema(s.Items)
	for _, name := range sortedKeys(s.Properties) {
		c.schema(s.Properties[name])
	}
	c.schema(s.AdditionalProperties.Schema)
	c.schema(s.Not)
	for _, group := range []openapi3.SchemaRefs{s.AllOf, s.AnyOf, s.OneOf} {
		for _, sub := range group {
			c.schema(sub)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
