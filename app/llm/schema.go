package llm

// IOC is one extracted indicator of compromise. The type vocabulary is
// open: the schema steers the model toward the known four, but the decoder
// accepts any non-empty type so new indicator kinds pass through.
type IOC struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	Context    string `json:"context,omitempty"`
	Confidence int    `json:"confidence"`
}

// securityAnalysisSchema is the JSON schema passed as the "format" field
// of a generate request so the service constrains its output shape.
func securityAnalysisSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"iocs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{"ip", "domain", "hash", "url"},
						},
						"value":   map[string]any{"type": "string"},
						"context": map[string]any{"type": "string"},
						"confidence": map[string]any{
							"type":    "integer",
							"minimum": 1,
							"maximum": 100,
						},
					},
					"required": []string{"type", "value"},
				},
			},
			"sigma_rule": map[string]any{
				"type": []string{"string", "null"},
			},
		},
		"required": []string{"iocs"},
	}
}
