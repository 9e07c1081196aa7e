package mockgen

import (
	"fmt"

	"github.com/speakeasy-api/openapi-overlay/pkg/loader"
	"gopkg.in/yaml.v3"
)

// applyOverlay loads the OpenAPI Overlay at path and applies its actions to
// the document node in place.
func applyOverlay(doc *yaml.Node, path string) error {
	overlay, err := loader.LoadOverlay(path)
	if err != nil {
		return fmt.Errorf("loading overlay: %w", err)
	}
	if err := overlay.Validate(); err != nil {
		return fmt.Errorf("invalid overlay: %w", err)
	}
	if err := overlay.ApplyTo(doc); err != nil {
		return fmt.Errorf("applying overlay: %w", err)
	}
	return nil
}
