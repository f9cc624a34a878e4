package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/vision-relay/internal/domain"
	"github.com/PabloGalante/vision-relay/internal/observability"
)

const DefaultModelName = "gemini-2.5-flash"

type VertexConfig struct {
	ProjectID string
	Location  string
	ModelName string
}

// VertexAnalyzer answers a query with a single Gemini call carrying the
// image inline. There is no remote thread or run.
type VertexAnalyzer struct {
	client    *genai.Client
	modelName string
}

var _ domain.ImageAnalyzer = (*VertexAnalyzer)(nil)

// NewVertexAnalyzer creates an ImageAnalyzer based on Vertex AI (Gemini).
func NewVertexAnalyzer(ctx context.Context, cfg VertexConfig) (*VertexAnalyzer, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex analyzer: project and location must be set")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.ProjectID,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexAnalyzer{
		client:    client,
		modelName: modelName,
	}, nil
}

// Analyze implements domain.ImageAnalyzer using Vertex AI.
func (v *VertexAnalyzer) Analyze(ctx context.Context, q domain.Query) (*domain.Reply, error) {
	if len(q.Image) == 0 {
		return nil, domain.ClientError(domain.MsgNoImage)
	}

	ctx, span := observability.Tracer().Start(ctx, "vision.vertex.generate")
	reply, err := v.generate(ctx, q)
	observability.EndSpan(span, err)
	return reply, err
}

func (v *VertexAnalyzer) generate(ctx context.Context, q domain.Query) (*domain.Reply, error) {
	contents := buildContents(q)

	temp := float32(0.4)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(q), genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(2048),
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return nil, domain.UpstreamError(domain.StageGenerate, "Error al generar respuesta", nil, fmt.Errorf("vertex generate content: %w", err))
	}

	// Empty text is returned as-is, same as a missing assistant text block.
	text := res.Text()
	observability.LoggerFromContext(ctx).Info("vertex reply", "model", v.modelName, "chars", len(text))

	return &domain.Reply{Text: text}, nil
}

func buildContents(q domain.Query) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromBytes(q.Image, imageMIMEType(q)),
		genai.NewPartFromText(q.PromptOrDefault()),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
