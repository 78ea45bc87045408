package analysis

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// stripFence removes the markdown code fence models like to wrap JSON in
func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// decodeAnswer decodes a model answer into v, repairing near-JSON (trailing
// commas, single quotes, a cut-off tail) before giving up
func decodeAnswer(text string, v interface{}) error {
	s := stripFence(text)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), v)
}

// fencedJSON renders v as an indented ```json block for a prompt
func fencedJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return "```json\n" + string(data) + "\n```", nil
}

// fencedRaw indents raw JSON as a ```json block
func fencedRaw(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return "```json\n" + buf.String() + "\n```", nil
}
