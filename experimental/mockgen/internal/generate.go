package mockgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Generator runs the whole pipeline for one Configuration.
type Generator struct {
	cfg    Configuration
	logger *zap.Logger
	types  TypesGenerator
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger diagnostics are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTypesGenerator replaces the datamodel-codegen subprocess.
func WithTypesGenerator(t TypesGenerator) Option {
	return func(g *Generator) {
		g.types = t
	}
}

// NewGenerator applies defaults to cfg and validates it.
func NewGenerator(cfg Configuration, opts ...Option) (*Generator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.types == nil && !cfg.Types.Skip {
		g.types = &CommandTypesGenerator{Command: cfg.Types.Command, Args: cfg.Types.Args}
	}
	return g, nil
}

// Configuration returns the effective configuration, defaults applied.
func (g *Generator) Configuration() Configuration {
	return g.cfg
}

// Rendered holds the in-memory outputs of one run.
type Rendered struct {
	Operations  []*CompiledOperation
	Diagnostics []Diagnostic
	Stubs       []byte
	Runtime     []byte // nil when the runtime is embedded in Stubs
	Manifest    []byte
}

// Render compiles spec and renders every output without touching the file
// system. A nil baseManifest uses DefaultBaseManifest.
func (g *Generator) Render(spec *Specification, baseManifest []byte) (*Rendered, error) {
	ops, diags, err := Compile(spec, CompileOptions{
		ContentTypes:         NewContentTypeMatcher(g.cfg.ContentTypes),
		ResponseSchemaPolicy: g.cfg.ResponseSchemaPolicy,
		Logger:               g.logger,
	})
	if err != nil {
		return nil, err
	}

	source := "<memory>"
	if spec.Path != "" {
		source = filepath.Base(spec.Path)
	}
	stubs, err := NewStubGenerator(StubOptions{
		Source:        source,
		TypesModule:   g.cfg.TypesModule,
		RuntimeModule: g.cfg.RuntimeModule,
		Credential:    g.cfg.Credential,
		Model:         g.cfg.Model,
		LoadDotenv:    g.cfg.LoadDotenv,
	})
	if err != nil {
		return nil, err
	}

	if baseManifest == nil {
		baseManifest = DefaultBaseManifest(ServiceName(spec.Title))
	}
	manifest, err := EmitManifest(ops, baseManifest, ManifestOptions{
		Source:     g.cfg.BaseManifest,
		StubModule: g.cfg.StubModule,
		Credential: g.cfg.Credential,
	})
	if err != nil {
		return nil, err
	}

	stubCode, err := stubs.GenerateStubs(ops)
	if err != nil {
		return nil, err
	}
	runtimeCode, err := stubs.GenerateRuntime()
	if err != nil {
		return nil, err
	}

	return &Rendered{
		Operations:  ops,
		Diagnostics: diags,
		Stubs:       stubCode,
		Runtime:     runtimeCode,
		Manifest:    manifest,
	}, nil
}

// Result describes a completed run. Paths are absolute.
type Result struct {
	Operations   []*CompiledOperation
	Diagnostics  []Diagnostic
	StubPath     string
	RuntimePath  string // empty when the runtime is embedded
	ManifestPath string
	TypesPath    string // empty when the types generator is skipped
}

// Generate loads the configured document, renders every output, runs the
// types generator and writes the files. Outputs are staged in a temporary
// directory inside the output directory and only moved into place once every
// step has succeeded.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	var loadOpts []LoadOption
	if g.cfg.Overlay != "" {
		loadOpts = append(loadOpts, WithOverlay(g.cfg.Overlay))
	}
	if g.cfg.ValidateSpec {
		loadOpts = append(loadOpts, WithValidation())
	}
	spec, err := Load(ctx, g.cfg.Input, loadOpts...)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("loaded specification",
		zap.String("path", g.cfg.Input),
		zap.Int("schemas", len(spec.SchemaNames())))

	var base []byte
	if g.cfg.BaseManifest != "" {
		base, err = os.ReadFile(g.cfg.BaseManifest)
		if err != nil {
			return nil, fmt.Errorf("reading base manifest: %w", err)
		}
	}

	rendered, err := g.Render(spec, base)
	if err != nil {
		return nil, err
	}

	outDir, err := filepath.Abs(g.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	stage, err := newStagingDir(outDir)
	if err != nil {
		return nil, err
	}
	defer stage.cleanup()

	result := &Result{
		Operations:   rendered.Operations,
		Diagnostics:  rendered.Diagnostics,
		StubPath:     filepath.Join(outDir, g.cfg.StubModule+".py"),
		ManifestPath: filepath.Join(outDir, g.cfg.Manifest),
	}

	if g.types != nil {
		specPath := g.cfg.Input
		if spec.Overlaid() {
			data, err := spec.Bytes()
			if err != nil {
				return nil, err
			}
			if specPath, err = stage.scratch("openapi.yaml", data); err != nil {
				return nil, err
			}
		}
		result.TypesPath = filepath.Join(outDir, g.cfg.TypesModule+".py")
		staged := stage.path(result.TypesPath)
		if err := g.types.GenerateTypes(ctx, specPath, staged); err != nil {
			return nil, err
		}
		g.logger.Debug("generated types module", zap.String("path", result.TypesPath))
	}

	if err := stage.write(result.StubPath, rendered.Stubs); err != nil {
		return nil, err
	}
	if rendered.Runtime != nil {
		result.RuntimePath = filepath.Join(outDir, g.cfg.RuntimeModule+".py")
		if err := stage.write(result.RuntimePath, rendered.Runtime); err != nil {
			return nil, err
		}
	}
	if err := stage.write(result.ManifestPath, rendered.Manifest); err != nil {
		return nil, err
	}

	if err := stage.commit(); err != nil {
		return nil, err
	}
	g.logger.Info("generated stubs",
		zap.String("path", result.StubPath),
		zap.Int("operations", len(result.Operations)),
		zap.Int("diagnostics", len(result.Diagnostics)))
	return result, nil
}
