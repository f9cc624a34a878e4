package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

// MockAnalyzer answers without calling any service. Useful for local dev.
type MockAnalyzer struct{}

var _ domain.ImageAnalyzer = (*MockAnalyzer)(nil)

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

func (m *MockAnalyzer) Analyze(_ context.Context, q domain.Query) (*domain.Reply, error) {
	if len(q.Image) == 0 {
		return nil, domain.ClientError(domain.MsgNoImage)
	}
	return &domain.Reply{
		Text: fmt.Sprintf("Recibí una imagen de %d bytes (%s). Dijiste %q.", len(q.Image), imageMIMEType(q), q.PromptOrDefault()),
	}, nil
}
