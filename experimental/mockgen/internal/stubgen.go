package mockgen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/oapi-codegen/oapi-mockgen/experimental/mockgen/internal/templates"
)

// jsonFormatInstructions replaces the parser's format instructions for
// operations whose response has no component schema.
const jsonFormatInstructions = "Respond with a single JSON document and nothing else."

// templateEntry describes a single template to load.
type templateEntry struct {
	Name     string // Template name for ExecuteTemplate
	Template string // Path within the templates FS (relative to "files/")
}

// loadTemplates parses one or more sets of template entries into the given template.
func loadTemplates(tmpl *template.Template, sets ...[]templateEntry) error {
	for _, set := range sets {
		for _, entry := range set {
			content, err := templates.TemplateFS.ReadFile("files/" + entry.Template)
			if err != nil {
				return fmt.Errorf("reading template %s: %w", entry.Template, err)
			}
			if _, err := tmpl.New(entry.Name).Parse(string(content)); err != nil {
				return fmt.Errorf("parsing template %s: %w", entry.Template, err)
			}
		}
	}
	return nil
}

func templateEntries(set map[string]templates.PythonTemplate) []templateEntry {
	entries := make([]templateEntry, 0, len(set))
	for _, t := range set {
		entries = append(entries, templateEntry{Name: t.Name, Template: t.Template})
	}
	return entries
}

// StubOptions controls the rendered stub module.
type StubOptions struct {
	// Source is recorded in the module header.
	Source string
	// TypesModule is the module the schema types are imported from.
	TypesModule string
	// RuntimeModule, when set, is imported for client initialization instead
	// of embedding it.
	RuntimeModule string
	Credential    CredentialConfig
	Model         ModelConfig
	// LoadDotenv loads a .env file before the credential check.
	LoadDotenv bool
}

// StubTemplateData is passed to the "module" template.
type StubTemplateData struct {
	Source           string
	Imports          []string
	FromImports      []FromImport
	LoadDotenv       bool
	EmbedRuntime     bool
	Runtime          RuntimeTemplateData
	JSONInstructions string
	Operations       []*CompiledOperation
}

// StubGenerator renders the stub module and the runtime module.
type StubGenerator struct {
	tmpl *template.Template
	opts StubOptions
}

// NewStubGenerator parses the embedded Python templates.
func NewStubGenerator(opts StubOptions) (*StubGenerator, error) {
	tmpl := template.New("stub").Funcs(pythonFuncs())
	if err := loadTemplates(tmpl, templateEntries(templates.StubTemplates), templateEntries(templates.RuntimeTemplates)); err != nil {
		return nil, err
	}
	return &StubGenerator{tmpl: tmpl, opts: opts}, nil
}

// GenerateStubs renders the stub module: one handler per compiled operation,
// in the order given.
func (g *StubGenerator) GenerateStubs(ops []*CompiledOperation) ([]byte, error) {
	ctx := NewGenerationContext()
	runtime := g.runtimeData()
	embed := g.opts.RuntimeModule == ""

	if embed {
		ctx.AddImport("os")
		ctx.AddFromImport("langchain.llms", runtime.ModelClass)
	} else {
		ctx.AddFromImport(g.opts.RuntimeModule, "init_client")
	}
	if g.opts.LoadDotenv {
		ctx.AddFromImport("dotenv", "load_dotenv")
	}

	for _, op := range ops {
		ctx.AddFromImport("langchain.prompts", "PromptTemplate")
		if op.ResponseSchema != "" {
			ctx.AddFromImport("langchain.output_parsers", "PydanticOutputParser")
		} else {
			ctx.AddImport("json")
			ctx.NeedHelper("json_format_instructions")
		}
		ctx.AddFromImport(g.opts.TypesModule, op.SchemaNames...)
	}

	data := StubTemplateData{
		Source:       g.opts.Source,
		Imports:      ctx.Imports(),
		FromImports:  ctx.FromImports(),
		LoadDotenv:   g.opts.LoadDotenv,
		EmbedRuntime: embed,
		Runtime:      runtime,
		Operations:   ops,
	}
	if ctx.HasHelper("json_format_instructions") {
		data.JSONInstructions = jsonFormatInstructions
	}

	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, "module", data); err != nil {
		return nil, fmt.Errorf("rendering stub module: %w", err)
	}
	return buf.Bytes(), nil
}
