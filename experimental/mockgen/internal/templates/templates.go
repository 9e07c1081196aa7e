// Package templates holds the embedded Python templates used to render the
// stub and runtime modules, and the JSON Schema every base deployment
// manifest must satisfy.
package templates

import "embed"

//go:embed files
var TemplateFS embed.FS

// PythonTemplate describes a single embedded Python template.
type PythonTemplate struct {
	Name     string // Template name for ExecuteTemplate
	Template string // Path within the templates FS (relative to "files/")
}

// StubTemplates render the stub module: one handler per compiled operation.
var StubTemplates = map[string]PythonTemplate{
	"module":  {Name: "module", Template: "stub/module.py.tmpl"},
	"handler": {Name: "handler", Template: "stub/handler.py.tmpl"},
}

// RuntimeTemplates render the client initialization code. "client" is shared:
// it is either inlined into the stub module or emitted once into a standalone
// runtime module.
var RuntimeTemplates = map[string]PythonTemplate{
	"runtime": {Name: "runtime", Template: "runtime/runtime.py.tmpl"},
	"client":  {Name: "client", Template: "runtime/client.py.tmpl"},
}

// ManifestSchema is the path of the JSON Schema for base deployment manifests.
const ManifestSchema = "manifest/schema.json"
