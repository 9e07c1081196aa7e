package mockgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/oapi-codegen/oapi-mockgen/experimental/mockgen/internal/templates"
)

// ManifestOptions controls the emitted deployment manifest.
type ManifestOptions struct {
	// Source names the base manifest in error messages.
	Source string
	// StubModule prefixes every handler reference.
	StubModule string
	Credential CredentialConfig
}

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		data, err := templates.TemplateFS.ReadFile("files/" + templates.ManifestSchema)
		if err != nil {
			manifestSchemaErr = fmt.Errorf("reading manifest schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			manifestSchemaErr = fmt.Errorf("parsing manifest schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.json", doc); err != nil {
			manifestSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		manifestSchema, manifestSchemaErr = c.Compile("manifest.json")
	})
	return manifestSchema, manifestSchemaErr
}

// DefaultBaseManifest returns the base manifest used when none is configured.
func DefaultBaseManifest(service string) []byte {
	return []byte(fmt.Sprintf(`service: %s
frameworkVersion: "3"
provider:
  name: aws
  runtime: python3.9
`, service))
}

// EmitManifest returns base with its functions replaced by one function per
// compiled operation and the credential declared in provider.environment.
// base is parsed afresh, so the caller's bytes are never modified.
func EmitManifest(ops []*CompiledOperation, base []byte, opts ManifestOptions) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(base, &doc); err != nil {
		return nil, &MalformedManifestError{Path: opts.Source, Reason: "not valid YAML", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &MalformedManifestError{Path: opts.Source, Reason: "document is empty"}
	}
	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &MalformedManifestError{Path: opts.Source, Reason: "document root is not a mapping"}
	}
	if err := validateManifest(root); err != nil {
		return nil, &MalformedManifestError{Path: opts.Source, Reason: "schema validation failed", Err: err}
	}

	functions := mappingNode()
	owners := make(map[string]*CompiledOperation, len(ops))
	for _, op := range ops {
		if first, ok := owners[op.OperationID]; ok {
			return nil, &DuplicateOperationIDError{
				OperationID: op.OperationID,
				First:       upperCaser.String(first.Method) + " " + first.Route,
				Second:      upperCaser.String(op.Method) + " " + op.Route,
			}
		}
		owners[op.OperationID] = op
		functions.Content = append(functions.Content, scalarNode(op.OperationID), functionNode(op, opts.StubModule))
	}
	setMappingValue(root, "functions", functions)

	provider := mappingValue(root, "provider")
	env := mappingValue(provider, "environment")
	if env == nil || env.Kind != yaml.MappingNode {
		env = mappingNode()
		setMappingValue(provider, "environment", env)
	}
	setMappingValue(env, opts.Credential.envVar(), scalarNode(opts.Credential.secretRef()))

	out, err := marshalYAML(&doc)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return out, nil
}

// functionNode builds one function entry:
//
//	handler: api_stubs.isPetFluffy
//	events:
//	  - http:
//	      path: /is_fluffy
//	      method: POST
func functionNode(op *CompiledOperation, stubModule string) *yaml.Node {
	http := mappingNode()
	http.Content = append(http.Content,
		scalarNode("path"), scalarNode(op.Route),
		scalarNode("method"), scalarNode(upperCaser.String(op.Method)),
	)
	event := mappingNode()
	event.Content = append(event.Content, scalarNode("http"), http)

	fn := mappingNode()
	fn.Content = append(fn.Content,
		scalarNode("handler"), scalarNode(stubModule+"."+op.OperationID),
		scalarNode("events"), &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{event}},
	)
	return fn
}

// validateManifest checks the base manifest against the embedded schema.
func validateManifest(root *yaml.Node) error {
	schema, err := compiledManifestSchema()
	if err != nil {
		return err
	}
	v, err := decodeNode(root)
	if err != nil {
		return err
	}
	// Round-trip through JSON so the validator sees JSON types.
	data, err := json.Marshal(jsonCompatible(v))
	if err != nil {
		return fmt.Errorf("converting manifest: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("converting manifest: %w", err)
	}
	return schema.Validate(inst)
}
