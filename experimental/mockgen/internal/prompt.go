package mockgen

import (
	"fmt"
	"strings"
)

// Fixed sections of every prompt template. The model call depends on the
// inputs coming before the instructions and the outputs coming last.
const (
	promptObjective    = "## Objective\n\nGenerate outputs for the %s operation (%s) of a Python AWS Lambda function with the following OpenAPI schema:\n\n"
	promptInputs       = "# Inputs\n\nThe Lambda function was invoked with the following event:\n\n{event}\n\n"
	promptInstructions = "# Instructions\n\n{format_instructions}\n\n"
	promptOutputs      = "# Outputs\n\n"
)

// braceEscaper doubles braces so document text cannot be mistaken for
// prompt template placeholders.
var braceEscaper = strings.NewReplacer("{", "{{", "}", "}}")

// buildTemplate assembles the prompt template for one operation: objective,
// the operation fragment, the request schema, the response schema, the
// schemas those depend on, then the fixed inputs, instructions and outputs
// sections.
func buildTemplate(spec *Specification, op *Operation, request, response string, deps []string) (string, error) {
	var b strings.Builder

	b.WriteString(braceEscaper.Replace(fmt.Sprintf(promptObjective, op.OperationID, op.String())))

	fragment, err := decodeNode(op.node)
	if err != nil {
		return "", fmt.Errorf("decoding operation: %w", err)
	}
	if err := writeFragment(&b, map[string]any{op.Route: map[string]any{op.Method: fragment}}); err != nil {
		return "", err
	}

	emitted := make(map[string]bool)
	for _, name := range append([]string{request, response}, deps...) {
		if name == "" || emitted[name] {
			continue
		}
		emitted[name] = true
		schema, err := decodeNode(mappingValue(spec.schemas, name))
		if err != nil {
			return "", fmt.Errorf("decoding schema %s: %w", name, err)
		}
		if err := writeFragment(&b, map[string]any{name: schema}); err != nil {
			return "", err
		}
	}

	b.WriteString(promptInputs)
	b.WriteString(promptInstructions)
	b.WriteString(promptOutputs)
	return b.String(), nil
}

// writeFragment serializes v as YAML followed by a blank line.
func writeFragment(b *strings.Builder, v any) error {
	data, err := marshalYAML(v)
	if err != nil {
		return fmt.Errorf("serializing template fragment: %w", err)
	}
	b.WriteString(braceEscaper.Replace(string(data)))
	b.WriteString("\n")
	return nil
}
