package mockgen

import (
	"bytes"
	"context"
	"os/exec"
	"slices"
)

// TypesGenerator produces the type-definitions module: one data class per
// schema in components.schemas. specPath is the OpenAPI document to read and
// outPath the Python file to write.
type TypesGenerator interface {
	GenerateTypes(ctx context.Context, specPath, outPath string) error
}

// CommandTypesGenerator runs datamodel-codegen, or a compatible command, as a
// subprocess.
type CommandTypesGenerator struct {
	Command string
	// Args are placed before the generated input and output arguments.
	Args []string
}

// GenerateTypes runs the command and blocks until it exits. A non-zero exit
// is returned as a TypesGenerationError carrying the command's stderr.
func (g *CommandTypesGenerator) GenerateTypes(ctx context.Context, specPath, outPath string) error {
	args := slices.Clone(g.Args)
	args = append(args,
		"--input", specPath,
		"--input-file-type", "openapi",
		"--output", outPath,
		"--output-model-type", "pydantic.BaseModel",
	)
	cmd := exec.CommandContext(ctx, g.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &TypesGenerationError{Command: g.Command, Stderr: stderr.String(), Err: err}
	}
	return nil
}
