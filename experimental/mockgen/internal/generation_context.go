package mockgen

// FromImport is one "from <Module> import <Names>" line.
type FromImport struct {
	Module string
	Names  []string
}

// GenerationContext is a centralized tracker for the imports and shared
// definitions a rendered Python module needs. Code rendering any part of the
// module registers what it uses; the final assembly queries the context to
// emit exactly what was requested, in a stable order.
type GenerationContext struct {
	imports     map[string]bool            // "import <module>"
	fromImports map[string]map[string]bool // module -> imported names
	helpers     map[string]bool            // module-level definitions (e.g., "json_format_instructions")
}

// NewGenerationContext creates a new GenerationContext.
func NewGenerationContext() *GenerationContext {
	return &GenerationContext{
		imports:     make(map[string]bool),
		fromImports: make(map[string]map[string]bool),
		helpers:     make(map[string]bool),
	}
}

// --- Import registration ---

// AddImport records a plain module import.
func (c *GenerationContext) AddImport(module string) {
	if module != "" {
		c.imports[module] = true
	}
}

// AddFromImport records names imported from module.
func (c *GenerationContext) AddFromImport(module string, names ...string) {
	if module == "" || len(names) == 0 {
		return
	}
	set, ok := c.fromImports[module]
	if !ok {
		set = make(map[string]bool)
		c.fromImports[module] = set
	}
	for _, name := range names {
		if name != "" {
			set[name] = true
		}
	}
}

// --- Helper registration ---

// NeedHelper records that a module-level definition is needed.
func (c *GenerationContext) NeedHelper(name string) {
	if name != "" {
		c.helpers[name] = true
	}
}

// --- Query methods ---

// Imports returns the sorted plain module imports.
func (c *GenerationContext) Imports() []string {
	return sortedKeys(c.imports)
}

// FromImports returns the from-imports sorted by module, names sorted within
// each module.
func (c *GenerationContext) FromImports() []FromImport {
	modules := sortedKeys(c.fromImports)
	result := make([]FromImport, 0, len(modules))
	for _, module := range modules {
		result = append(result, FromImport{Module: module, Names: sortedKeys(c.fromImports[module])})
	}
	return result
}

// HasHelper reports whether a module-level definition was requested.
func (c *GenerationContext) HasHelper(name string) bool {
	return c.helpers[name]
}
