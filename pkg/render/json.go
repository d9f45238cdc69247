package render

import (
	"encoding/json"

	"github.com/dkoosis/playv/pkg/labs"
)

// JSON renders boards as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	Version string       `json:"version"`
	Root    string       `json:"root,omitempty"`
	Records []jsonRecord `json:"records"`
	Summary Counts       `json:"summary"`
}

type jsonRecord struct {
	Key     string       `json:"key"`
	Lab     string       `json:"lab"`
	Problem string       `json:"problem,omitempty"`
	Dir     string       `json:"dir"`
	Verdict labs.Verdict `json:"verdict"`
}

// Render formats b as JSON.
func (j *JSON) Render(b Board) string {
	out := jsonOutput{
		Version: "1",
		Root:    b.Root,
		Records: make([]jsonRecord, 0, len(b.Records)),
		Summary: b.Count(),
	}
	for _, r := range b.Records {
		out.Records = append(out.Records, jsonRecord{
			Key:     r.Key(),
			Lab:     r.Lab,
			Problem: r.Name,
			Dir:     r.Dir,
			Verdict: r.Verdict,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON)
	}
	return string(data) + "\n"
}
