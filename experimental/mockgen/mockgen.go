// Package mockgen provides the public API for oapi-mockgen, which turns an
// OpenAPI document into Python serverless handlers that ask a language model
// to synthesize mock responses, plus the matching deployment manifest.
//
// This package re-exports the core types and functions from the internal
// implementation, providing a stable public interface for external consumers.
package mockgen

import (
	"context"

	"go.uber.org/zap"

	impl "github.com/oapi-codegen/oapi-mockgen/experimental/mockgen/internal"
)

// Configuration is the top-level configuration for generation.
type Configuration = impl.Configuration

// CredentialConfig names the model API credential.
type CredentialConfig = impl.CredentialConfig

// ModelConfig configures the completion client of the generated module.
type ModelConfig = impl.ModelConfig

// TypesConfig configures the external type-definitions generator.
type TypesConfig = impl.TypesConfig

// ResponseSchemaPolicy selects the governing response schema of an operation.
type ResponseSchemaPolicy = impl.ResponseSchemaPolicy

// Response schema policies.
const (
	ResponseSchemaLast    = impl.ResponseSchemaLast
	ResponseSchemaSuccess = impl.ResponseSchemaSuccess
	ResponseSchemaStrict  = impl.ResponseSchemaStrict
)

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = impl.DefaultTemperature

// Specification is a parsed OpenAPI document.
type Specification = impl.Specification

// LoadOption configures Load.
type LoadOption = impl.LoadOption

// CompiledOperation is the resolved form of one operation.
type CompiledOperation = impl.CompiledOperation

// Diagnostic is a non-fatal finding about an operation.
type Diagnostic = impl.Diagnostic

// Generator runs the whole pipeline for one Configuration.
type Generator = impl.Generator

// Option configures a Generator.
type Option = impl.Option

// Result describes a completed run.
type Result = impl.Result

// TypesGenerator produces the type-definitions module.
type TypesGenerator = impl.TypesGenerator

// Error types returned by the generator.
type (
	MalformedSpecError           = impl.MalformedSpecError
	UnresolvedReferenceError     = impl.UnresolvedReferenceError
	DuplicateOperationIDError    = impl.DuplicateOperationIDError
	AmbiguousResponseSchemaError = impl.AmbiguousResponseSchemaError
	InvalidIdentifierError       = impl.InvalidIdentifierError
	MalformedManifestError       = impl.MalformedManifestError
	TypesGenerationError         = impl.TypesGenerationError
	ConfigError                  = impl.ConfigError
)

// Load reads and parses the specification at path.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Specification, error) {
	return impl.Load(ctx, path, opts...)
}

// WithOverlay applies an OpenAPI Overlay document before the specification is
// inspected.
func WithOverlay(path string) LoadOption {
	return impl.WithOverlay(path)
}

// WithValidation validates the document as OpenAPI 3.
func WithValidation() LoadOption {
	return impl.WithValidation()
}

// DefaultConfiguration returns a Configuration with every default applied.
// Input is left empty.
func DefaultConfiguration() Configuration {
	return impl.Configuration{}.WithDefaults()
}

// NewGenerator applies defaults to cfg and validates it.
func NewGenerator(cfg Configuration, opts ...Option) (*Generator, error) {
	return impl.NewGenerator(cfg, opts...)
}

// WithLogger sets the logger diagnostics are reported to.
func WithLogger(logger *zap.Logger) Option {
	return impl.WithLogger(logger)
}

// WithTypesGenerator replaces the datamodel-codegen subprocess.
func WithTypesGenerator(t TypesGenerator) Option {
	return impl.WithTypesGenerator(t)
}
