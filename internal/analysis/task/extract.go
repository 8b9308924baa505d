package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxSymptomTags   = 10
	maxConditionTags = 5
)

// analysisResult is the subset of the model's JSON answer that feeds
// tag extraction.
type analysisResult struct {
	ObservedSymptoms   []string          `json:"observed_symptoms"`
	PossibleConditions []json.RawMessage `json:"possible_conditions"`
	UrgencyLevel       string            `json:"urgency_level"`
}

// ExtractTags derives case tags from a stored raw response: observed
// symptoms, condition names and an urgency marker. A response that
// cannot be parsed yields no tags; that is not an error.
func ExtractTags(rawResponse json.RawMessage) []string {
	var envelope struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(rawResponse, &envelope); err != nil || envelope.Text == "" {
		return nil
	}

	text := stripCodeFence(envelope.Text)

	var result analysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil
	}

	tags := make([]string, 0, maxSymptomTags+maxConditionTags+1)

	symptoms := result.ObservedSymptoms
	if len(symptoms) > maxSymptomTags {
		symptoms = symptoms[:maxSymptomTags]
	}
	tags = append(tags, symptoms...)

	conditions := result.PossibleConditions
	if len(conditions) > maxConditionTags {
		conditions = conditions[:maxConditionTags]
	}
	for _, raw := range conditions {
		var cond struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &cond); err != nil || cond.Name == "" {
			continue
		}
		tags = append(tags, cond.Name)
	}

	if result.UrgencyLevel != "" {
		tags = append(tags, fmt.Sprintf("urgency:%s", result.UrgencyLevel))
	}

	return dedupe(tags)
}

// stripCodeFence removes a leading markdown code fence, including an
// optional "json" language marker, from the model's answer.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	if strings.HasPrefix(inner, "json") {
		inner = inner[4:]
	}
	return strings.TrimSpace(inner)
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
