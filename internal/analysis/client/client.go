// Package client wraps the Gemini API for diagnosis image analysis.
// It does prompt construction, the API call and verbatim response
// capture. No business logic, no database access.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"agrovet_backend/platform/config"
)

// PromptVersion identifies the prompt template baked into this build.
// Bump it whenever the template text changes.
const PromptVersion = "v1"

const basePrompt = `You are a veterinary AI assistant specializing in cattle disease diagnosis.

Analyze the provided image(s) of a cattle/bovine animal and provide:
1. Observed symptoms and abnormalities
2. Possible diseases or conditions (ranked by likelihood)
3. Recommended immediate actions
4. Suggested treatments or medications
5. Whether veterinary consultation is urgently needed

Respond in JSON format with the following structure:
{
    "observed_symptoms": ["symptom1", "symptom2"],
    "possible_conditions": [
        {"name": "condition_name", "confidence": 0.0-1.0, "description": "brief description"}
    ],
    "immediate_actions": ["action1", "action2"],
    "suggested_treatments": ["treatment1", "treatment2"],
    "urgency_level": "low|medium|high|critical",
    "requires_vet_consultation": true|false,
    "additional_notes": "any other observations"
}`

// ImageRef points at one stored case image and carries the mime type
// recorded at upload time.
type ImageRef struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
}

// Request is the structured analysis request. It is persisted verbatim
// as the audit record of what was sent to the model.
type Request struct {
	Prompt         string     `json:"prompt"`
	ImageRefs      []ImageRef `json:"image_refs"`
	ModelID        string     `json:"model_id"`
	PromptVersion  string     `json:"prompt_version"`
	ContextVersion *string    `json:"context_version,omitempty"`
}

// Response is the outcome of one API call. Execute never returns an
// error: failures are encoded in Success and Error so the caller can
// persist the raw payload either way.
type Response struct {
	RawResponse json.RawMessage
	LatencyMs   int
	Success     bool
	Error       string
}

// Image is one inline image to send with the prompt.
type Image struct {
	MimeType string
	Data     []byte
}

// BuildPrompt renders the analysis prompt, appending farmer-reported
// symptoms when present.
func BuildPrompt(symptoms *string) string {
	prompt := basePrompt
	if symptoms != nil && *symptoms != "" {
		prompt += fmt.Sprintf("\n\nReported symptoms by farmer: %s", *symptoms)
	}
	return prompt
}

// BuildRequest assembles a structured request for the given case inputs.
// An empty promptVersion falls back to the built-in template version.
func BuildRequest(imageRefs []ImageRef, symptoms *string, modelID, promptVersion string, contextVersion *string) Request {
	if promptVersion == "" {
		promptVersion = PromptVersion
	}
	return Request{
		Prompt:         BuildPrompt(symptoms),
		ImageRefs:      imageRefs,
		ModelID:        modelID,
		PromptVersion:  promptVersion,
		ContextVersion: contextVersion,
	}
}

// Client is a thin wrapper around the Gemini SDK.
type Client struct {
	genai   *genai.Client
	timeout time.Duration
}

// New creates a Gemini client from configuration.
func New(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{genai: gc, timeout: cfg.GetGeminiTimeout()}, nil
}

// Execute performs a single generation call. The returned RawResponse
// carries either the full provider payload or an error envelope; it is
// never nil and latency is recorded on every path.
func (c *Client) Execute(ctx context.Context, req Request, images []Image) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MimeType,
				Data:     img.Data,
			},
		})
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, req.ModelID, contents, nil)
	latency := int(time.Since(start).Milliseconds())

	if err != nil {
		return Response{
			RawResponse: errorEnvelope(err.Error(), "api_error"),
			LatencyMs:   latency,
			Success:     false,
			Error:       err.Error(),
		}
	}

	raw, err := marshalResponse(resp)
	if err != nil {
		return Response{
			RawResponse: errorEnvelope(err.Error(), "encode_error"),
			LatencyMs:   latency,
			Success:     false,
			Error:       err.Error(),
		}
	}

	return Response{RawResponse: raw, LatencyMs: latency, Success: true}
}

// marshalResponse wraps the full provider payload together with the
// flattened text, which downstream tag extraction reads.
func marshalResponse(resp *genai.GenerateContentResponse) (json.RawMessage, error) {
	full, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gemini response: %w", err)
	}
	envelope := map[string]any{
		"text":     resp.Text(),
		"response": json.RawMessage(full),
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response envelope: %w", err)
	}
	return raw, nil
}

func errorEnvelope(message, errType string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{
		"error":      message,
		"error_type": errType,
	})
	return raw
}
