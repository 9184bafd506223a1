package rag

import (
	"errors"
	"strings"
	"text/template"

	"TechPulse/internal/model"
)

// phiTemplate follows the Phi-3.5 chat format.
const phiTemplate = `
<|system|>
You are a helpful assistant.<|end|>
<|user|>
Given the following information, answer the question.

Context:
{{- range .Documents }}
    {{ .Content }}
{{- end }}

Question: {{ .Query }}?<|end|>
<|assistant|>`

var promptTmpl = template.Must(template.New("prompt").Parse(phiTemplate))

// BuildPrompt renders the retrieval prompt. Both documents and query are required.
func BuildPrompt(query string, docs []model.ScoredChunk) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("prompt: query is required")
	}
	if docs == nil {
		return "", errors.New("prompt: documents are required")
	}
	var b strings.Builder
	err := promptTmpl.Execute(&b, struct {
		Documents []model.ScoredChunk
		Query     string
	}{docs, strings.TrimSpace(query)})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
