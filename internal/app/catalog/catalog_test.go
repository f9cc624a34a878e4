package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PabloGalante/vision-relay/internal/app/catalog"
	"github.com/PabloGalante/vision-relay/internal/domain"
)

const sampleYAML = `
default: senalizacion
assistants:
  - id: senalizacion
    assistant_id: asst_signs
    name: Asistente de Señalización
    description: Identifica y explica señales de tráfico.
  - id: general
    assistant_id: asst_general
    instructions: You are a helpful assistant.
`

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "assistants.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, sampleYAML)

	c, err := catalog.LoadFile(path, domain.Assistant{RemoteID: "asst_env"})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	def, ok := c.Default()
	if !ok || def.Slug != "senalizacion" || def.RemoteID != "asst_signs" {
		t.Fatalf("unexpected default %+v", def)
	}

	list := c.List()
	if len(list) != 3 || list[0].Slug != catalog.DefaultSlug {
		t.Fatalf("expected fallback entry first, got %+v", list)
	}

	general, ok := c.Lookup("general")
	if !ok {
		t.Fatalf("general not found")
	}
	if general.Name != "general" {
		t.Fatalf("expected name to default to slug, got %q", general.Name)
	}
	if general.Instructions == "" {
		t.Fatalf("expected instructions to be loaded")
	}

	if _, ok := c.Lookup("missing"); ok {
		t.Fatalf("expected missing slug to be absent")
	}
}

func TestLoadFileFallbackBecomesDefault(t *testing.T) {
	path := writeFile(t, "assistants:\n  - id: other\n    assistant_id: asst_other\n")

	c, err := catalog.LoadFile(path, domain.Assistant{RemoteID: "asst_env", Name: "Env"})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	def, ok := c.Default()
	if !ok || def.RemoteID != "asst_env" {
		t.Fatalf("expected env assistant as default, got %+v", def)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := catalog.New("", []domain.Assistant{
		{Slug: "a", RemoteID: "1"},
		{Slug: "a", RemoteID: "2"},
	})
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestNewRejectsUnknownDefault(t *testing.T) {
	if _, err := catalog.New("nope", []domain.Assistant{{Slug: "a"}}); err == nil {
		t.Fatalf("expected unknown default error")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeFile(t, "assistants: [")
	if _, err := catalog.LoadFile(path, domain.Assistant{}); err == nil {
		t.Fatalf("expected parse error")
	}
}
