package curriculum

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// generatedSchema is the minimum shape accepted from a generation response.
// Activities are rebuilt from matched resources so they are not required here.
var generatedSchema = map[string]any{
	"type":     "object",
	"required": []any{"title", "weeks"},
	"properties": map[string]any{
		"title": map[string]any{"type": "string", "minLength": 1},
		"weeks": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"modules"},
				"properties": map[string]any{
					"weekNumber": map[string]any{"type": "integer", "minimum": 0},
					"goals":      map[string]any{"type": []any{"array", "null"}, "items": map[string]any{"type": "string"}},
					"modules": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type":     "object",
							"required": []any{"lessons"},
							"properties": map[string]any{
								"lessons": map[string]any{
									"type":     "array",
									"minItems": 1,
									"items": map[string]any{
										"type":     "object",
										"required": []any{"title"},
										"properties": map[string]any{
											"title":    map[string]any{"type": "string", "minLength": 1},
											"xpPoints": map[string]any{"type": []any{"integer", "null"}},
											"topics":   map[string]any{"type": []any{"array", "null"}, "items": map[string]any{"type": "string"}},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	},
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(generatedSchema))
})

// ParseGenerated checks raw against the generation schema and decodes it.
// Every failure is a *GenerationError.
func ParseGenerated(raw json.RawMessage) (*Curriculum, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling curriculum schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &GenerationError{Stage: "parse", Err: err}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, &GenerationError{Stage: "schema", Details: details}
	}

	var c Curriculum
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &GenerationError{Stage: "parse", Err: err}
	}
	return &c, nil
}
