package mockgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultStubOptions() StubOptions {
	return StubOptions{
		Source:      "fluffy.yaml",
		TypesModule: DefaultTypesModule,
		Credential:  CredentialConfig{EnvVar: DefaultCredentialEnvVar},
	}
}

func renderStubs(t *testing.T, opts StubOptions, ops []*CompiledOperation) string {
	t.Helper()
	gen, err := NewStubGenerator(opts)
	require.NoError(t, err)
	code, err := gen.GenerateStubs(ops)
	require.NoError(t, err)
	return string(code)
}

var typesImport = regexp.MustCompile(`(?m)^from model import (.+)$`)

func TestGenerateStubsFluffy(t *testing.T) {
	spec := loadFluffy(t)
	ops := compileFluffy(t)
	code := renderStubs(t, defaultStubOptions(), ops)

	assert.True(t, strings.HasPrefix(code, "# Code generated by oapi-mockgen. DO NOT EDIT.\n# Source: fluffy.yaml\n"))
	assert.True(t, strings.HasSuffix(code, "\n"))

	t.Run("one handler per operation", func(t *testing.T) {
		for _, op := range ops {
			assert.Equal(t, 1, strings.Count(code, "\ndef "+op.OperationID+"(event, context, client=None):\n"), op.OperationID)
		}
		assert.Equal(t, len(ops)+1, strings.Count(code, "\ndef "), "handlers plus init_client")
	})

	t.Run("imports", func(t *testing.T) {
		assert.Contains(t, code, "\nimport os\n")
		assert.Contains(t, code, "\nfrom langchain.llms import OpenAI\n")
		assert.Contains(t, code, "\nfrom langchain.output_parsers import PydanticOutputParser\n")
		assert.Contains(t, code, "\nfrom langchain.prompts import PromptTemplate\n")
		assert.NotContains(t, code, "import json")
		assert.NotContains(t, code, "load_dotenv")

		m := typesImport.FindAllStringSubmatch(code, -1)
		require.Len(t, m, 1)
		names := strings.Split(m[0][1], ", ")
		assert.Equal(t, []string{"IsFluffyRequest", "IsFluffyResponse"}, names)
		for _, name := range names {
			assert.True(t, spec.HasSchema(name), "%s is not a declared schema", name)
		}
	})

	t.Run("client initialization", func(t *testing.T) {
		assert.Contains(t, code, "class MissingCredentialError(Exception):")
		assert.Contains(t, code, `if not os.environ.get("OPENAI_API_KEY"):`)
		assert.Contains(t, code, "    return OpenAI(temperature=0.9)\n")
		assert.Contains(t, code, "\nCLIENT = init_client()\n")
		assert.Less(t, strings.Index(code, "def init_client"), strings.Index(code, "CLIENT = init_client()"))
	})

	t.Run("handler body", func(t *testing.T) {
		assert.Contains(t, code, `    """POST /is_fluffy: Is the pet fluffy?"""`)
		assert.Contains(t, code, "    client = client or CLIENT\n")
		assert.Contains(t, code, "    parser = PydanticOutputParser(pydantic_object=IsFluffyResponse)\n")
		assert.Contains(t, code, "    return parser.parse(output).dict()\n")
		assert.Equal(t, 2, strings.Count(code, `input_variables=["event"]`))
	})
}

func TestGenerateStubsWithoutResponseSchema(t *testing.T) {
	ops := []*CompiledOperation{{
		OperationID: "ping",
		Route:       "/ping",
		Method:      "get",
		Description: "Health check.\nAlways succeeds.",
		Template:    "## Objective\n\n{event}\n\n{format_instructions}\n",
	}}
	code := renderStubs(t, defaultStubOptions(), ops)

	assert.Contains(t, code, "\nimport json\n")
	assert.Contains(t, code, "\nJSON_FORMAT_INSTRUCTIONS = \"Respond with a single JSON document and nothing else.\"\n")
	assert.Contains(t, code, `partial_variables={"format_instructions": JSON_FORMAT_INSTRUCTIONS},`)
	assert.Contains(t, code, "    return json.loads(output)\n")
	assert.Contains(t, code, `    """GET /ping: Health check."""`)
	assert.NotContains(t, code, "PydanticOutputParser")
	assert.NotContains(t, code, "from model import")
}

func TestGenerateStubsExternalRuntime(t *testing.T) {
	opts := defaultStubOptions()
	opts.RuntimeModule = "mock_runtime"
	code := renderStubs(t, opts, compileFluffy(t))

	assert.Contains(t, code, "\nfrom mock_runtime import init_client\n")
	assert.Contains(t, code, "\nCLIENT = init_client()\n")
	assert.NotContains(t, code, "class MissingCredentialError")
	assert.NotContains(t, code, "import os")
	assert.NotContains(t, code, "langchain.llms")
}

func TestGenerateStubsLoadDotenv(t *testing.T) {
	opts := defaultStubOptions()
	opts.LoadDotenv = true
	code := renderStubs(t, opts, compileFluffy(t))

	assert.Contains(t, code, "\nfrom dotenv import load_dotenv\n")
	assert.Less(t, strings.Index(code, "\nload_dotenv()\n"), strings.Index(code, "\nCLIENT = init_client()\n"))
}

func TestGenerateStubsModelOptions(t *testing.T) {
	temperature := 0.2
	opts := defaultStubOptions()
	opts.Credential.EnvVar = "MOCK_LLM_KEY"
	opts.Model = ModelConfig{Class: "AzureOpenAI", Name: "gpt-35-turbo-instruct", Temperature: &temperature}
	code := renderStubs(t, opts, compileFluffy(t))

	assert.Contains(t, code, "\nfrom langchain.llms import AzureOpenAI\n")
	assert.Contains(t, code, `return AzureOpenAI(model_name="gpt-35-turbo-instruct", temperature=0.2)`)
	assert.Contains(t, code, `os.environ.get("MOCK_LLM_KEY")`)
	assert.Contains(t, code, "MOCK_LLM_KEY environment variable.")
}

func TestGenerateStubsEscapesTemplate(t *testing.T) {
	ops := []*CompiledOperation{{
		OperationID:    "quote",
		Route:          "/quote",
		Method:         "post",
		ResponseSchema: "Quote",
		SchemaNames:    []string{"Quote"},
		Template:       `say """hi""" with a \n in it`,
	}}
	code := renderStubs(t, defaultStubOptions(), ops)
	assert.Contains(t, code, `    template = """say \"\"\"hi\"\"\" with a \\n in it"""`)
}

func TestGenerateStubsDeterministic(t *testing.T) {
	ops := compileFluffy(t)
	first := renderStubs(t, defaultStubOptions(), ops)
	second := renderStubs(t, defaultStubOptions(), ops)
	assert.Equal(t, first, second)
}
