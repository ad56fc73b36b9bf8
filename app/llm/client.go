package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// thinkingModelFamilies lists model families that emit <think> reasoning
// spans. Membership is resolved into a capability flag whenever the model
// name changes, not per response.
var thinkingModelFamilies = []string{"deepseek", "yi", "qwen"}

var thinkTagRE = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Client wraps the generative-model HTTP service. Base URL and model name
// are swappable at runtime via UpdateConfig.
type Client struct {
	mu         sync.Mutex
	baseURL    string
	model      string
	stripThink bool
	httpClient *http.Client
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		stripThink: isThinkingModel(model),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func isThinkingModel(model string) bool {
	lower := strings.ToLower(model)
	for _, family := range thinkingModelFamilies {
		if strings.Contains(lower, family) {
			return true
		}
	}
	return false
}

// UpdateConfig swaps the service base URL and/or model name without
// reconstructing the client. An empty argument keeps the current value,
// so partial updates are atomic under the one lock.
func (c *Client) UpdateConfig(baseURL, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	if model != "" {
		c.model = model
		c.stripThink = isThinkingModel(model)
	}
}

// Config returns the current base URL and model name.
func (c *Client) Config() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL, c.model
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries the service's model registry. On any transport or
// schema failure it falls back to the configured model name rather than
// failing the caller.
func (c *Client) ListModels(ctx context.Context) []string {
	baseURL, model := c.Config()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return []string{model}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return []string{model}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []string{model}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil || len(tags.Models) == 0 {
		return []string{model}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names
}

type generateRequest struct {
	Model  string         `json:"model"`
	Prompt string         `json:"prompt"`
	Stream bool           `json:"stream"`
	Format map[string]any `json:"format,omitempty"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Generate issues a single completion request. Transport and
// malformed-response failures come back as an inline error string, never
// as a raised error; callers must treat any response as potentially being
// one. Reasoning spans are stripped before returning.
func (c *Client) Generate(ctx context.Context, prompt string, format map[string]any) string {
	c.mu.Lock()
	baseURL := c.baseURL
	model := c.model
	stripThink := c.stripThink
	c.mu.Unlock()

	text, err := c.generate(ctx, baseURL, model, prompt, format)
	if err != nil {
		return fmt.Sprintf("Error generating response: %s", err)
	}

	if stripThink {
		text = thinkTagRE.ReplaceAllString(text, "")
	}

	return text
}

func (c *Client) generate(ctx context.Context, baseURL, model, prompt string, format map[string]any) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Response == nil {
		return "", fmt.Errorf("missing response field from %s", url)
	}

	return *result.Response, nil
}

// SummarizeArticle asks the model for a 2-3 sentence summary of content.
func (c *Client) SummarizeArticle(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(`Summarize the following article concisely in 2-3 sentences, only reply with the summary.:

%s

Summary:`, content)

	return c.Generate(ctx, prompt, nil)
}

// AnalyzeDetailedContent asks the model for an in-depth write-up of content.
func (c *Client) AnalyzeDetailedContent(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(`Analyze the following article in detail. Include:
1. Key points and findings
2. Technical details if present
3. Impact assessment
4. Related technologies/concepts mentioned
5. Any recommendations or conclusions

%s

Analysis:`, content)

	return c.Generate(ctx, prompt, nil)
}

// AnalyzeSecurityContent extracts IOCs and a Sigma rule from content via
// schema-constrained output. Decode failures degrade to an empty IOC list
// and the fixed error sentinel; no error is ever raised to the caller.
func (c *Client) AnalyzeSecurityContent(ctx context.Context, content string) ([]IOC, string) {
	prompt := fmt.Sprintf(`Extract potential Indicators of Compromise (IOCs) from the following security article and create a Sigma rule.

Article:
%s

Instructions:
1. Identify all potential IOCs (IPs, domains, URLs, file hashes)
2. For each IOC:
   - Determine the correct type (ip, domain, hash, url)
   - Extract the value
   - Include surrounding context
   - Assess confidence level (1-100)
3. Create a Sigma rule if applicable

Your response should be a structured output with:
- A list of IOCs including type, value, context, and confidence
- A Sigma rule (or null if not applicable)`, content)

	response := c.Generate(ctx, prompt, securityAnalysisSchema())

	return DecodeSecurityAnalysis(response)
}
