package mockgen

import (
	"bytes"
	"fmt"
	"strconv"
)

// RuntimeTemplateData is passed to the "client" and "runtime" templates.
type RuntimeTemplateData struct {
	CredentialEnvVar string
	ModelClass       string
	ModelArgs        string
}

// runtimeData returns the client initialization parameters.
func (g *StubGenerator) runtimeData() RuntimeTemplateData {
	model := g.opts.Model
	args := "temperature=" + strconv.FormatFloat(model.temperature(), 'f', -1, 64)
	if model.Name != "" {
		args = "model_name=" + pyString(model.Name) + ", " + args
	}
	class := model.Class
	if class == "" {
		class = DefaultModelClass
	}
	return RuntimeTemplateData{
		CredentialEnvVar: g.opts.Credential.envVar(),
		ModelClass:       class,
		ModelArgs:        args,
	}
}

// GenerateRuntime renders the standalone runtime module. It returns nil when
// the runtime is embedded into the stub module.
func (g *StubGenerator) GenerateRuntime() ([]byte, error) {
	if g.opts.RuntimeModule == "" {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, "runtime", g.runtimeData()); err != nil {
		return nil, fmt.Errorf("rendering runtime module: %w", err)
	}
	return buf.Bytes(), nil
}
