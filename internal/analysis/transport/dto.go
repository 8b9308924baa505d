// Package transport defines request/response DTOs for the analysis module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// AnalyzeRequest triggers AI analysis for a case. An omitted prompt
// version selects the built-in template.
type AnalyzeRequest struct {
	PromptVersion  *string `json:"promptVersion"`
	ContextVersion *string `json:"contextVersion"`
}

// AnalyzeResponse acknowledges that analysis has been queued.
// Raw provider payloads are never part of this response.
type AnalyzeResponse struct {
	OutputID  uuid.UUID `json:"outputId"`
	CaseID    uuid.UUID `json:"caseId"`
	ModelID   string    `json:"modelId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
