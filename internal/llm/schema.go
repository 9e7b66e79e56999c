package llm

import "github.com/joseph-ayodele/syncora/internal/common"

// ChatCompletionSchema is the minimum shape we accept from an OpenAI-compatible
// /chat/completions response: at least one choice carrying string content.
var ChatCompletionSchema = common.MustCompileSchema("chat_completion.json", map[string]any{
	"type":     "object",
	"required": []string{"choices"},
	"properties": map[string]any{
		"choices": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"message"},
				"properties": map[string]any{
					"message": map[string]any{
						"type":     "object",
						"required": []string{"content"},
						"properties": map[string]any{
							"content": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	},
})
