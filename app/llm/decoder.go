package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Sentinel rule values. Callers compare against these rather than
// inspecting errors: the decode path never raises.
const (
	NoSigmaRule    = "No applicable Sigma rule for this content."
	SigmaRuleError = "Error generating Sigma rule"
)

type securityAnalysisPayload struct {
	IOCs      []iocPayload `json:"iocs"`
	SigmaRule *string      `json:"sigma_rule"`
}

type iocPayload struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	Context    string `json:"context"`
	Confidence *int   `json:"confidence"`
}

// DecodeSecurityAnalysis validates model output against the expected
// security-analysis shape. Malformed JSON or a schema mismatch logs the
// raw payload and degrades to an empty IOC list plus the error sentinel.
func DecodeSecurityAnalysis(raw string) ([]IOC, string) {
	payload, err := decodePayload(raw)
	if err != nil {
		slog.Warn("Failed to decode security analysis", "error", err, "raw", raw)
		return []IOC{}, SigmaRuleError
	}

	iocs := make([]IOC, 0, len(payload.IOCs))
	for _, p := range payload.IOCs {
		confidence := 100
		if p.Confidence != nil {
			confidence = clampConfidence(*p.Confidence)
		}
		iocs = append(iocs, IOC{
			Type:       p.Type,
			Value:      p.Value,
			Context:    p.Context,
			Confidence: confidence,
		})
	}

	rule := NoSigmaRule
	if payload.SigmaRule != nil && *payload.SigmaRule != "" {
		rule = *payload.SigmaRule
	}

	return iocs, rule
}

func decodePayload(raw string) (*securityAnalysisPayload, error) {
	var payload securityAnalysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if payload.IOCs == nil {
		return nil, fmt.Errorf("missing iocs field")
	}

	for i, ioc := range payload.IOCs {
		if ioc.Type == "" || ioc.Value == "" {
			return nil, fmt.Errorf("ioc %d missing type or value", i)
		}
	}

	return &payload, nil
}

func clampConfidence(confidence int) int {
	if confidence < 1 {
		return 1
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
