package mockgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

// fakeTypes stands in for datamodel-codegen.
type fakeTypes struct {
	calls    int
	specData []byte
	err      error
}

func (f *fakeTypes) GenerateTypes(_ context.Context, specPath, outPath string) error {
	f.calls++
	data, err := os.ReadFile(specPath)
	if err != nil {
		return err
	}
	f.specData = data
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("from pydantic import BaseModel\n"), 0o644)
}

func writeSpec(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestGenerateFluffy(t *testing.T) {
	out := t.TempDir()
	types := &fakeTypes{}
	g, err := NewGenerator(Configuration{
		Input:     filepath.Join("testdata", "fluffy.yaml"),
		OutputDir: out,
	}, WithTypesGenerator(types))
	require.NoError(t, err)

	res, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "api_stubs.py"), res.StubPath)
	assert.Equal(t, filepath.Join(out, "serverless.yml"), res.ManifestPath)
	assert.Equal(t, filepath.Join(out, "model.py"), res.TypesPath)
	assert.Empty(t, res.RuntimePath)
	assert.Len(t, res.Operations, 2)
	assert.Empty(t, res.Diagnostics)
	assert.ElementsMatch(t, []string{"api_stubs.py", "model.py", "serverless.yml"}, dirNames(t, out))

	assert.Equal(t, 1, types.calls)
	assert.Contains(t, string(types.specData), "operationId: isPetFluffy")

	manifest, err := os.ReadFile(res.ManifestPath)
	require.NoError(t, err)
	doc := parseManifest(t, manifest)
	assert.Equal(t, "pet-fluffiness-api", doc.Service)
	assert.Len(t, doc.Functions, 2)

	stubs, err := os.ReadFile(res.StubPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(stubs), "(event, context, client=None):"))
}

func TestGenerateOptions(t *testing.T) {
	out := t.TempDir()
	types := &fakeTypes{}
	g, err := NewGenerator(Configuration{
		Input:         filepath.Join("testdata", "fluffy.yaml"),
		Overlay:       filepath.Join("testdata", "overlay.yaml"),
		BaseManifest:  filepath.Join("testdata", "serverless.base.yml"),
		OutputDir:     filepath.Join(out, "build"),
		StubModule:    "handlers",
		RuntimeModule: "mock_runtime",
		Manifest:      "serverless.yaml",
	}, WithTypesGenerator(types))
	require.NoError(t, err)

	res, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"handlers.py", "mock_runtime.py", "model.py", "serverless.yaml"},
		dirNames(t, filepath.Join(out, "build")))
	assert.Equal(t, filepath.Join(out, "build", "mock_runtime.py"), res.RuntimePath)

	// The types generator reads the overlaid document.
	assert.Contains(t, string(types.specData), "petIsAlwaysFluffy")

	stubs, err := os.ReadFile(res.StubPath)
	require.NoError(t, err)
	assert.Contains(t, string(stubs), "\ndef petIsAlwaysFluffy(event, context, client=None):\n")
	assert.Contains(t, string(stubs), "\nfrom mock_runtime import init_client\n")

	manifest, err := os.ReadFile(res.ManifestPath)
	require.NoError(t, err)
	doc := parseManifest(t, manifest)
	assert.Equal(t, "fluffy-pets", doc.Service)
	assert.Equal(t, "handlers.petIsAlwaysFluffy", doc.Functions["petIsAlwaysFluffy"].Handler)
}

func TestGenerateSkipTypes(t *testing.T) {
	out := t.TempDir()
	g, err := NewGenerator(Configuration{
		Input:     filepath.Join("testdata", "fluffy.yaml"),
		OutputDir: out,
		Types:     TypesConfig{Skip: true},
	})
	require.NoError(t, err)

	res, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.TypesPath)
	assert.ElementsMatch(t, []string{"api_stubs.py", "serverless.yml"}, dirNames(t, out))
}

func TestGenerateUnresolvedReferenceWritesNothing(t *testing.T) {
	input := writeSpec(t, `paths:
  /pets:
    get:
      operationId: listPets
      responses:
        '200':
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
components:
  schemas:
    Owner:
      type: object
`)
	out := t.TempDir()
	types := &fakeTypes{}
	g, err := NewGenerator(Configuration{Input: input, OutputDir: out}, WithTypesGenerator(types))
	require.NoError(t, err)

	_, err = g.Generate(context.Background())
	var ue *UnresolvedReferenceError
	require.True(t, errors.As(err, &ue), "got %v", err)
	assert.Equal(t, "#/components/schemas/Pet", ue.Ref)
	assert.Zero(t, types.calls)
	assert.Empty(t, dirNames(t, out))
}

func TestGenerateTypesFailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "build")
	types := &fakeTypes{err: &TypesGenerationError{Command: "datamodel-codegen", Stderr: "boom", Err: errors.New("exit status 2")}}
	g, err := NewGenerator(Configuration{
		Input:     filepath.Join("testdata", "fluffy.yaml"),
		OutputDir: out,
	}, WithTypesGenerator(types))
	require.NoError(t, err)

	_, err = g.Generate(context.Background())
	var te *TypesGenerationError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Contains(t, err.Error(), "boom")
	assert.NoDirExists(t, out)
	assert.Empty(t, dirNames(t, root))
}

func TestGenerateValidateSpec(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		g, err := NewGenerator(Configuration{
			Input:        filepath.Join("testdata", "fluffy.yaml"),
			OutputDir:    t.TempDir(),
			ValidateSpec: true,
			Types:        TypesConfig{Skip: true},
		})
		require.NoError(t, err)
		_, err = g.Generate(context.Background())
		require.NoError(t, err)
	})

	t.Run("invalid document", func(t *testing.T) {
		out := t.TempDir()
		g, err := NewGenerator(Configuration{
			Input:        writeSpec(t, "openapi: 3.0.3\npaths: {}\n"),
			OutputDir:    out,
			ValidateSpec: true,
			Types:        TypesConfig{Skip: true},
		})
		require.NoError(t, err)
		_, err = g.Generate(context.Background())
		var me *MalformedSpecError
		require.True(t, errors.As(err, &me), "got %v", err)
		assert.Empty(t, dirNames(t, out))
	})
}

func TestGenerateMalformedBaseManifestWritesNothing(t *testing.T) {
	out := t.TempDir()
	base := filepath.Join(t.TempDir(), "serverless.yml")
	require.NoError(t, os.WriteFile(base, []byte("provider:\n  name: aws\n"), 0o644))

	g, err := NewGenerator(Configuration{
		Input:        filepath.Join("testdata", "fluffy.yaml"),
		BaseManifest: base,
		OutputDir:    out,
		Types:        TypesConfig{Skip: true},
	})
	require.NoError(t, err)

	_, err = g.Generate(context.Background())
	var me *MalformedManifestError
	require.True(t, errors.As(err, &me), "got %v", err)
	assert.Equal(t, base, me.Path)
	assert.Empty(t, dirNames(t, out))
}

func TestGenerateSkipsOperationWithoutID(t *testing.T) {
	input := writeSpec(t, `info:
  title: Partial
paths:
  /pets:
    get:
      operationId: listPets
      responses: {}
    post:
      responses: {}
`)
	core, logs := observer.New(zap.InfoLevel)
	g, err := NewGenerator(Configuration{
		Input:     input,
		OutputDir: t.TempDir(),
		Types:     TypesConfig{Skip: true},
	}, WithLogger(zap.New(core)))
	require.NoError(t, err)

	res, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "post", res.Diagnostics[0].Method)

	assert.Equal(t, 1, logs.FilterMessage("skipping operation without operationId").Len())
	done := logs.FilterMessage("generated stubs").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 1, done[0].ContextMap()["diagnostics"])

	stubs, err := os.ReadFile(res.StubPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(stubs), "(event, context, client=None):"))
}

func TestGenerateIdempotent(t *testing.T) {
	run := func() map[string][]byte {
		out := t.TempDir()
		g, err := NewGenerator(Configuration{
			Input:        filepath.Join("testdata", "fluffy.yaml"),
			BaseManifest: filepath.Join("testdata", "serverless.base.yml"),
			OutputDir:    out,
		}, WithTypesGenerator(&fakeTypes{}))
		require.NoError(t, err)
		_, err = g.Generate(context.Background())
		require.NoError(t, err)

		files := make(map[string][]byte)
		for _, name := range dirNames(t, out) {
			data, err := os.ReadFile(filepath.Join(out, name))
			require.NoError(t, err)
			files[name] = data
		}
		return files
	}

	assert.Equal(t, run(), run())
}

// TestRenderProperty checks, for generated documents, that rendering is
// byte-for-byte repeatable and that stubs and manifest each carry exactly one
// entry per operation.
func TestRenderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	g, err := NewGenerator(Configuration{Input: "generated.yaml", Types: TypesConfig{Skip: true}})
	require.NoError(t, err)

	properties.Property("render is deterministic and one-to-one", prop.ForAll(
		func(names []string, withRequest bool) bool {
			var ids []string
			seen := make(map[string]bool)
			for _, n := range names {
				id := "op_" + n
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
			src := generatedSpec(ids, withRequest)

			spec, err := LoadData(context.Background(), []byte(src))
			if err != nil {
				return false
			}
			first, err := g.Render(spec, nil)
			if err != nil {
				return false
			}
			second, err := g.Render(spec, nil)
			if err != nil {
				return false
			}
			if !bytes.Equal(first.Stubs, second.Stubs) || !bytes.Equal(first.Manifest, second.Manifest) {
				return false
			}

			stubs := string(first.Stubs)
			for _, id := range ids {
				if strings.Count(stubs, "\ndef "+id+"(") != 1 {
					return false
				}
			}
			var doc manifestDoc
			if err := yaml.Unmarshal(first.Manifest, &doc); err != nil {
				return false
			}
			return len(doc.Functions) == len(ids) && len(first.Operations) == len(ids)
		},
		gen.SliceOf(gen.Identifier()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// generatedSpec builds a document with one POST operation per id, spread over
// three shared schemas.
func generatedSpec(ids []string, withRequest bool) string {
	var b strings.Builder
	b.WriteString("info:\n  title: Generated\n")
	if len(ids) == 0 {
		b.WriteString("paths: {}\n")
	} else {
		b.WriteString("paths:\n")
	}
	for i, id := range ids {
		fmt.Fprintf(&b, "  /r%d:\n    post:\n      operationId: %s\n", i, id)
		if withRequest {
			fmt.Fprintf(&b, "      requestBody:\n        content:\n          application/json:\n            schema:\n              $ref: '#/components/schemas/Schema%d'\n", (i+1)%3)
		}
		fmt.Fprintf(&b, "      responses:\n        '200':\n          content:\n            application/json:\n              schema:\n                $ref: '#/components/schemas/Schema%d'\n", i%3)
	}
	b.WriteString("components:\n  schemas:\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "    Schema%d:\n      type: object\n      properties:\n        value:\n          type: integer\n", i)
	}
	return b.String()
}
