package answer

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

const promptPreamble = `You are an assistant for the VINCE project.
Use the provided CONTEXT below to answer the USER QUESTION.

IMPORTANT RULES:
1. Only use the information in the CONTEXT.
2. Cite your sources using the format [SOURCE_N] immediately after the relevant sentence.
3. If the answer isn't in the context, say you don't know.
4. Provide a helpful, clear, and professional response in English.
`

// SourceLabel returns the citation label of the i-th passage (0-based).
func SourceLabel(i int) string {
	return "SOURCE_" + strconv.Itoa(i+1)
}

// BuildPrompt renders the generation prompt: instructions, then each passage
// body labelled [SOURCE_N] in rank order, then the question.
// The output depends only on its arguments.
func BuildPrompt(question string, passages []passage.Passage) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString("\nCONTEXT:\n")
	for i := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(SourceLabel(i))
		sb.WriteString("]: ")
		sb.WriteString(strings.TrimSpace(passages[i].Content()))
	}
	sb.WriteString("\n\nUSER QUESTION:\n")
	sb.WriteString(question)
	sb.WriteString("\n")
	return sb.String()
}
