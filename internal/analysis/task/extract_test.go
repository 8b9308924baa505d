package task

import (
	"encoding/json"
	"fmt"
	"testing"
)

func envelope(t *testing.T, text string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestExtractTags(t *testing.T) {
	text := `{
		"observed_symptoms": ["swollen udder", "fever", "swollen udder"],
		"possible_conditions": [
			{"name": "mastitis", "confidence": 0.9, "description": "udder infection"},
			{"name": "fever", "confidence": 0.4}
		],
		"urgency_level": "high"
	}`

	tags := ExtractTags(envelope(t, text))
	want := []string{"swollen udder", "fever", "mastitis", "urgency:high"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i, w := range want {
		if tags[i] != w {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], w)
		}
	}
}

func TestExtractTagsStripsCodeFence(t *testing.T) {
	text := "```json\n{\"observed_symptoms\": [\"limping\"], \"urgency_level\": \"low\"}\n```"

	tags := ExtractTags(envelope(t, text))
	if len(tags) != 2 || tags[0] != "limping" || tags[1] != "urgency:low" {
		t.Errorf("tags = %v", tags)
	}
}

func TestExtractTagsCaps(t *testing.T) {
	symptoms := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		symptoms = append(symptoms, fmt.Sprintf("symptom-%d", i))
	}
	conditions := make([]map[string]any, 0, 8)
	for i := 0; i < 8; i++ {
		conditions = append(conditions, map[string]any{"name": fmt.Sprintf("condition-%d", i)})
	}
	body, err := json.Marshal(map[string]any{
		"observed_symptoms":   symptoms,
		"possible_conditions": conditions,
	})
	if err != nil {
		t.Fatal(err)
	}

	tags := ExtractTags(envelope(t, string(body)))
	if len(tags) != maxSymptomTags+maxConditionTags {
		t.Errorf("tags = %d, want %d", len(tags), maxSymptomTags+maxConditionTags)
	}
}

func TestExtractTagsUnparseable(t *testing.T) {
	cases := []json.RawMessage{
		envelope(t, "The animal appears healthy overall."),
		envelope(t, ""),
		json.RawMessage(`{"error": "boom", "retries_exhausted": true}`),
		json.RawMessage(`not-json`),
	}
	for _, raw := range cases {
		if tags := ExtractTags(raw); len(tags) != 0 {
			t.Errorf("ExtractTags(%s) = %v, want none", raw, tags)
		}
	}
}

func TestExtractTagsSkipsMalformedConditions(t *testing.T) {
	text := `{
		"possible_conditions": ["bare string", {"name": "bloat"}, {"confidence": 0.2}],
		"urgency_level": "critical"
	}`

	tags := ExtractTags(envelope(t, text))
	if len(tags) != 2 || tags[0] != "bloat" || tags[1] != "urgency:critical" {
		t.Errorf("tags = %v", tags)
	}
}
