package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestImageMIMEType(t *testing.T) {
	cases := []struct {
		name string
		q    domain.Query
		want string
	}{
		{"explicit", domain.Query{MIMEType: "image/jpeg", Image: pngHeader}, "image/jpeg"},
		{"sniffed", domain.Query{MIMEType: "application/octet-stream", Image: pngHeader}, "image/png"},
		{"fallback", domain.Query{Image: []byte("not an image")}, "image/png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := imageMIMEType(tc.q); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	if got := systemPrompt(domain.Query{Instructions: "  Identify traffic signs. "}); got != "Identify traffic signs." {
		t.Fatalf("unexpected prompt %q", got)
	}
	if got := systemPrompt(domain.Query{}); got != defaultSystemPrompt {
		t.Fatalf("expected default prompt")
	}
}

func TestBuildContentsCarriesImageAndPrompt(t *testing.T) {
	contents := buildContents(domain.Query{Image: pngHeader})
	if len(contents) != 1 || len(contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents %+v", contents)
	}
	if contents[0].Parts[0].InlineData == nil || contents[0].Parts[0].InlineData.MIMEType != "image/png" {
		t.Fatalf("expected inline png part")
	}
	if contents[0].Parts[1].Text != domain.DefaultPrompt {
		t.Fatalf("expected default prompt, got %q", contents[0].Parts[1].Text)
	}
}

func TestMockAnalyzer(t *testing.T) {
	m := NewMockAnalyzer()

	reply, err := m.Analyze(context.Background(), domain.Query{Prompt: "hola", Image: pngHeader})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !strings.Contains(reply.Text, "hola") {
		t.Fatalf("expected prompt echoed, got %q", reply.Text)
	}

	if _, err := m.Analyze(context.Background(), domain.Query{}); err == nil {
		t.Fatalf("expected client error for missing image")
	}
}

func TestAnalyzersShareMissingImageMessage(t *testing.T) {
	analyzers := map[string]domain.ImageAnalyzer{
		"mock":   NewMockAnalyzer(),
		"vertex": &VertexAnalyzer{},
	}

	for name, a := range analyzers {
		t.Run(name, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), domain.Query{Prompt: "hola"})
			if err == nil {
				t.Fatalf("expected failure for missing image")
			}
			f := domain.AsFailure(err)
			if f.Kind != domain.KindClient || f.Message != domain.MsgNoImage {
				t.Fatalf("expected client failure %q, got %s %q", domain.MsgNoImage, f.Kind, f.Message)
			}
		})
	}
}
