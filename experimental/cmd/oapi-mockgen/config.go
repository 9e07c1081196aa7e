package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oapi-codegen/oapi-mockgen/experimental/mockgen"
)

// envPrefix prefixes every environment variable override, e.g.
// OAPI_MOCKGEN_OUTPUT_DIR or OAPI_MOCKGEN_CREDENTIAL_ENV_VAR.
const envPrefix = "OAPI_MOCKGEN"

// defaultConfigName is looked up in the working directory when --config is
// not given.
const defaultConfigName = "oapi-mockgen"

type options struct {
	cfg     mockgen.Configuration
	verbose bool
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"input":                  "input",
	"overlay":                "overlay",
	"validate":               "validate",
	"output-dir":             "output-dir",
	"stub-module":            "stub-module",
	"runtime-module":         "runtime-module",
	"types-module":           "types-module",
	"base-manifest":          "base-manifest",
	"manifest":               "manifest",
	"response-schema-policy": "response-schema-policy",
	"content-type":           "content-types",
	"credential-env":         "credential.env-var",
	"secret-ref":             "credential.secret-ref",
	"model-class":            "model.class",
	"model":                  "model.name",
	"temperature":            "model.temperature",
	"skip-types":             "types.skip",
	"types-command":          "types.command",
	"types-arg":              "types.args",
	"load-dotenv":            "load-dotenv",
}

// addFlags registers every command-line flag on fs.
func addFlags(fs *pflag.FlagSet) {
	d := mockgen.DefaultConfiguration()

	fs.SortFlags = false
	fs.StringP("config", "c", "", "configuration file (default ./"+defaultConfigName+".yaml when present)")
	fs.String("input", "", "OpenAPI document; may also be given as the only argument")
	fs.String("overlay", "", "OpenAPI Overlay applied to the document before generation")
	fs.Bool("validate", false, "validate the document as OpenAPI 3 before generating")
	fs.StringP("output-dir", "o", d.OutputDir, "directory receiving the generated files")
	fs.String("stub-module", d.StubModule, "Python module name of the generated handlers")
	fs.String("runtime-module", "", "emit client initialization into this shared module instead of embedding it")
	fs.String("types-module", d.TypesModule, "Python module name of the generated schema types")
	fs.String("base-manifest", "", "deployment manifest to start from (default: built in)")
	fs.String("manifest", d.Manifest, "file name of the generated deployment manifest")
	fs.String("response-schema-policy", string(d.ResponseSchemaPolicy), "governing response schema when several are referenced: last, success or strict")
	fs.StringSlice("content-type", d.ContentTypes, "media type patterns whose schemas are used (regular expressions)")
	fs.String("credential-env", d.Credential.EnvVar, "environment variable holding the model API key")
	fs.String("secret-ref", "", "manifest value for the credential (default ${env:<credential-env>})")
	fs.String("model-class", d.Model.Class, "langchain.llms class used by the generated module")
	fs.String("model", "", "model name passed to the completion client")
	fs.Float64("temperature", mockgen.DefaultTemperature, "sampling temperature of the completion client")
	fs.Bool("skip-types", false, "do not run the types generator")
	fs.String("types-command", d.Types.Command, "types generator executable")
	fs.StringArray("types-arg", nil, "extra argument for the types generator (repeatable)")
	fs.Bool("load-dotenv", false, "load a .env file in the generated module")
	fs.BoolP("verbose", "v", false, "log debug output")
}

// loadOptions resolves the configuration from, in increasing precedence:
// defaults, the configuration file, OAPI_MOCKGEN_* environment variables and
// command-line flags. fs must already be parsed; positional holds its
// remaining arguments.
func loadOptions(fs *pflag.FlagSet, positional []string) (*options, error) {
	if len(positional) > 1 {
		return nil, fmt.Errorf("expected one OpenAPI document, got %d arguments", len(positional))
	}

	v := viper.New()
	d := mockgen.DefaultConfiguration()
	v.SetDefault("output-dir", d.OutputDir)
	v.SetDefault("stub-module", d.StubModule)
	v.SetDefault("types-module", d.TypesModule)
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("response-schema-policy", string(d.ResponseSchemaPolicy))
	v.SetDefault("content-types", d.ContentTypes)
	v.SetDefault("credential.env-var", d.Credential.EnvVar)
	v.SetDefault("model.class", d.Model.Class)
	v.SetDefault("model.temperature", mockgen.DefaultTemperature)
	v.SetDefault("types.command", d.Types.Command)
	for _, key := range []string{"input", "overlay", "runtime-module", "base-manifest", "credential.secret-ref", "model.name"} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{"validate", "types.skip", "load-dotenv"} {
		v.SetDefault(key, false)
	}
	v.SetDefault("types.args", []string{})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	if len(positional) == 1 {
		v.Set("input", positional[0])
	}

	var cfg mockgen.Configuration
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	verbose, _ := fs.GetBool("verbose")
	return &options{cfg: cfg, verbose: verbose}, nil
}
