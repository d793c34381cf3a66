package llm

import _ "embed"

var (
	//go:embed prompts/figurine_v1.txt
	figurinePromptV1 string
)

// DefaultPromptVersion is used when the caller does not pick one.
const DefaultPromptVersion = "v1"

// PromptTemplate returns the system instruction text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v1":
		return figurinePromptV1, true
	default:
		return figurinePromptV1, false
	}
}
