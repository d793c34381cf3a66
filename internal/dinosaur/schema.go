package dinosaur

import "github.com/google/generative-ai-go/genai"

// ResponseSchema is the structured-output schema sent with every request:
// an object with the four required string properties.
func ResponseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(Fields))
	required := make([]string, 0, len(Fields))
	for _, f := range Fields {
		props[f.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: f.Description,
		}
		required = append(required, f.Name)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}
