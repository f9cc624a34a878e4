package llm

import (
	"net/http"
	"strings"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

const defaultSystemPrompt = `
You describe and analyze images sent by the user.

General style guidelines:
- Answer in the SAME LANGUAGE as the user's prompt.
- Be concise and concrete; describe what is actually visible.
- If the image is unclear, say what you can and cannot see.
`

// systemPrompt returns the assistant instructions, or the default prompt.
func systemPrompt(q domain.Query) string {
	if s := strings.TrimSpace(q.Instructions); s != "" {
		return s
	}
	return defaultSystemPrompt
}

// imageMIMEType trusts an explicit image/* type, otherwise sniffs the bytes.
func imageMIMEType(q domain.Query) string {
	if strings.HasPrefix(q.MIMEType, "image/") {
		return q.MIMEType
	}
	if sniffed := http.DetectContentType(q.Image); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return "image/png"
}
