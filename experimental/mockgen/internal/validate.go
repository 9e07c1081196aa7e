package mockgen

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// validateOpenAPI checks data against the OpenAPI 3 specification. It is
// stricter than the structural checks LoadData always performs: info,
// response descriptions and schema keywords must all be well formed.
func validateOpenAPI(ctx context.Context, data []byte) error {
	l := openapi3.NewLoader()
	l.Context = ctx
	doc, err := l.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("loading OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	return nil
}
