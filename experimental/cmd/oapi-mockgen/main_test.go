package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsSpec = `openapi: 3.0.3
info:
  title: Pets
  version: "1"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/PetList'
    post:
      summary: no operationId
      responses:
        '201':
          description: created
components:
  schemas:
    PetList:
      type: array
      items:
        type: string
`

func writeInput(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRun(t *testing.T) {
	input := writeInput(t, petsSpec)
	out := t.TempDir()
	var stdout, stderr bytes.Buffer

	code := run([]string{input, "--output-dir", out, "--skip-types"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Equal(t, filepath.Join(out, "api_stubs.py")+"\n", stdout.String())
	assert.FileExists(t, filepath.Join(out, "api_stubs.py"))
	assert.FileExists(t, filepath.Join(out, "serverless.yml"))
	assert.Contains(t, stderr.String(), "skipping operation without operationId")
	assert.Contains(t, stderr.String(), "POST")
}

func TestRunUnresolvedReference(t *testing.T) {
	input := writeInput(t, `paths:
  /pets:
    get:
      operationId: listPets
      responses:
        '200':
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Missing'
`)
	out := t.TempDir()
	var stdout, stderr bytes.Buffer

	code := run([]string{input, "-o", out, "--skip-types"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), `unresolved reference "#/components/schemas/Missing"`)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "oapi-mockgen [flags] <openapi.yaml>")
	assert.Contains(t, stdout.String(), "--response-schema-policy")
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"--skip-types"}, "input"},
		{"bad policy", []string{"api.yaml", "--response-schema-policy", "first"}, "response-schema-policy"},
		{"bad module", []string{"api.yaml", "--stub-module", "api-stubs"}, "stub-module"},
		{"unknown flag", []string{"--frobnicate"}, "frobnicate"},
		{"two inputs", []string{"a.yaml", "b.yaml"}, "expected one OpenAPI document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}
