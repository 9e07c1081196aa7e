package mockgen

import (
	"regexp"
)

// Defaults applied by Configuration.WithDefaults.
const (
	DefaultOutputDir        = "."
	DefaultStubModule       = "api_stubs"
	DefaultTypesModule      = "model"
	DefaultManifest         = "serverless.yml"
	DefaultCredentialEnvVar = "OPENAI_API_KEY"
	DefaultModelClass       = "OpenAI"
	DefaultTemperature      = 0.9
	DefaultTypesCommand     = "datamodel-codegen"
)

// Configuration is the top-level configuration for generation.
type Configuration struct {
	// Input is the OpenAPI document to generate from.
	Input string `yaml:"input"`
	// Overlay is an optional OpenAPI Overlay applied to Input.
	Overlay string `yaml:"overlay,omitempty"`
	// ValidateSpec checks Input against the OpenAPI 3 specification.
	ValidateSpec bool `yaml:"validate,omitempty"`

	// OutputDir receives every generated file.
	OutputDir string `yaml:"output-dir"`
	// StubModule is the Python module name of the stub file (without ".py").
	StubModule string `yaml:"stub-module"`
	// RuntimeModule, when set, moves client initialization into its own
	// module so that several stub modules can share it.
	RuntimeModule string `yaml:"runtime-module,omitempty"`
	// TypesModule is the module the types generator writes.
	TypesModule string `yaml:"types-module"`
	// BaseManifest is the deployment manifest the generated one starts from.
	// Empty uses a built-in default derived from the document title.
	BaseManifest string `yaml:"base-manifest,omitempty"`
	// Manifest is the file name of the generated deployment manifest.
	Manifest string `yaml:"manifest"`

	// ResponseSchemaPolicy picks the governing response schema.
	ResponseSchemaPolicy ResponseSchemaPolicy `yaml:"response-schema-policy"`
	// ContentTypes are regular expressions selecting the media types whose
	// schemas are used. Empty uses DefaultContentTypes.
	ContentTypes []string `yaml:"content-types,omitempty"`

	Credential CredentialConfig `yaml:"credential"`
	Model      ModelConfig      `yaml:"model"`
	Types      TypesConfig      `yaml:"types"`

	// LoadDotenv makes the stub module load a .env file at import time.
	LoadDotenv bool `yaml:"load-dotenv,omitempty"`
}

// CredentialConfig names the model API credential. Only the name of the
// secret ever reaches generated files.
type CredentialConfig struct {
	// EnvVar is checked by the generated module at import time.
	EnvVar string `yaml:"env-var"`
	// SecretRef is the manifest value for EnvVar. Defaults to "${env:<EnvVar>}".
	SecretRef string `yaml:"secret-ref,omitempty"`
}

func (c CredentialConfig) envVar() string {
	if c.EnvVar == "" {
		return DefaultCredentialEnvVar
	}
	return c.EnvVar
}

func (c CredentialConfig) secretRef() string {
	if c.SecretRef == "" {
		return "${env:" + c.envVar() + "}"
	}
	return c.SecretRef
}

// ModelConfig configures the completion client of the generated module.
type ModelConfig struct {
	// Class is the langchain.llms class. Defaults to OpenAI.
	Class string `yaml:"class,omitempty"`
	// Name is passed as model_name when set.
	Name string `yaml:"name,omitempty"`
	// Temperature defaults to DefaultTemperature.
	Temperature *float64 `yaml:"temperature,omitempty"`
}

func (m ModelConfig) temperature() float64 {
	if m.Temperature == nil {
		return DefaultTemperature
	}
	return *m.Temperature
}

// TypesConfig configures the external type-definitions generator.
type TypesConfig struct {
	// Skip disables the types generator; the types module must then exist.
	Skip bool `yaml:"skip,omitempty"`
	// Command is the generator executable. Defaults to datamodel-codegen.
	Command string `yaml:"command,omitempty"`
	// Args are passed before the input and output arguments.
	Args []string `yaml:"args,omitempty"`
}

// WithDefaults returns a copy of c with every empty field set to its default.
func (c Configuration) WithDefaults() Configuration {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.StubModule == "" {
		c.StubModule = DefaultStubModule
	}
	if c.TypesModule == "" {
		c.TypesModule = DefaultTypesModule
	}
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.ResponseSchemaPolicy == "" {
		c.ResponseSchemaPolicy = ResponseSchemaLast
	}
	if len(c.ContentTypes) == 0 {
		c.ContentTypes = DefaultContentTypes()
	}
	if c.Credential.EnvVar == "" {
		c.Credential.EnvVar = DefaultCredentialEnvVar
	}
	if c.Model.Class == "" {
		c.Model.Class = DefaultModelClass
	}
	if c.Types.Command == "" {
		c.Types.Command = DefaultTypesCommand
	}
	return c
}

var envVarName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate reports the first invalid field.
func (c Configuration) Validate() error {
	if c.Input == "" {
		return &ConfigError{Field: "input", Reason: "an OpenAPI document is required"}
	}
	modules := []struct {
		field, name string
		optional    bool
	}{
		{"stub-module", c.StubModule, false},
		{"types-module", c.TypesModule, false},
		{"runtime-module", c.RuntimeModule, true},
	}
	for _, m := range modules {
		if m.optional && m.name == "" {
			continue
		}
		if !IsPythonIdentifier(m.name) {
			return &ConfigError{Field: m.field, Reason: "must be a Python module name, got " + pyString(m.name)}
		}
	}
	if c.StubModule == c.TypesModule || (c.RuntimeModule != "" && (c.RuntimeModule == c.StubModule || c.RuntimeModule == c.TypesModule)) {
		return &ConfigError{Field: "stub-module", Reason: "stub, types and runtime modules must have distinct names"}
	}
	if c.Manifest == "" {
		return &ConfigError{Field: "manifest", Reason: "must not be empty"}
	}
	if !c.ResponseSchemaPolicy.Valid() {
		return &ConfigError{Field: "response-schema-policy", Reason: "must be one of last, success, strict"}
	}
	for _, p := range c.ContentTypes {
		if _, err := regexp.Compile(p); err != nil {
			return &ConfigError{Field: "content-types", Reason: err.Error()}
		}
	}
	if !envVarName.MatchString(c.Credential.EnvVar) {
		return &ConfigError{Field: "credential.env-var", Reason: "must be an environment variable name"}
	}
	if !IsPythonIdentifier(c.Model.Class) {
		return &ConfigError{Field: "model.class", Reason: "must be a Python class name"}
	}
	if t := c.Model.temperature(); t < 0 || t > 2 {
		return &ConfigError{Field: "model.temperature", Reason: "must be between 0 and 2"}
	}
	if !c.Types.Skip && c.Types.Command == "" {
		return &ConfigError{Field: "types.command", Reason: "must not be empty unless types.skip is set"}
	}
	return nil
}
