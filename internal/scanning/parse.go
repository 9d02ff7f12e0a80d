package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// transcript is the JSON shape the LLM providers are asked to return
type transcript struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// parseTranscriptJSON parses an LLM transcription reply. Models sometimes wrap
// the object in markdown fences or chatter, so only the outermost {...} is read.
func parseTranscriptJSON(reply string) (*transcript, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSpace(reply)

	start := strings.Index(reply, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(reply, "}")
	if end < start {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var t transcript
	if err := json.Unmarshal([]byte(reply[start:end+1]), &t); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	t.Text = strings.TrimSpace(strings.ReplaceAll(t.Text, "\r\n", "\n"))
	if t.Confidence != nil {
		c := *t.Confidence
		// some models answer on a 0-1 scale
		if c > 0 && c <= 1 {
			c *= 100
		}
		c = min(max(c, 0), 100)
		t.Confidence = &c
	}

	return &t, nil
}

// transcriptPayload builds a payload from an LLM reply, falling back to the
// heuristic confidence when the model did not report one.
func transcriptPayload(source, reply string) (Payload, error) {
	t, err := parseTranscriptJSON(reply)
	if err != nil {
		return Payload{}, fmt.Errorf("parsing transcript: %w", err)
	}

	conf := t.Confidence
	if conf == nil {
		conf = Confidence(HeuristicConfidence(t.Text))
	}

	return Payload{
		Source:     source,
		Text:       t.Text,
		Confidence: conf,
	}, nil
}
