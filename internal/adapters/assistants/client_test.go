package assistants_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PabloGalante/vision-relay/internal/adapters/assistants"
	"github.com/PabloGalante/vision-relay/internal/domain"
)

func newClient(t *testing.T, srv *httptest.Server) *assistants.Client {
	t.Helper()

	c, err := assistants.New(assistants.Config{
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := assistants.New(assistants.Config{APIKey: "  "}); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestCreateThreadSendsAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/threads" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := r.Header.Get("OpenAI-Beta"); got != assistants.DefaultBeta {
			t.Errorf("expected beta header %q, got %q", assistants.DefaultBeta, got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "{}" {
			t.Errorf("expected empty object body, got %s", body)
		}
		_, _ = w.Write([]byte(`{"id":"thread_1","object":"thread"}`))
	}))
	defer srv.Close()

	id, raw, err := newClient(t, srv).CreateThread(context.Background())
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if id != "thread_1" {
		t.Fatalf("expected thread_1, got %q", id)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw body to be returned")
	}
}

func TestCreateThreadToleratesNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	id, raw, err := newClient(t, srv).CreateThread(context.Background())
	if err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
	if string(raw) != "bad gateway" {
		t.Fatalf("unexpected raw body %q", raw)
	}
}

func TestPostMessageEncodesImage(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/thread_1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			Role        string `json:"role"`
			Content     string `json:"content"`
			Attachments []struct {
				Type string `json:"type"`
				Data string `json:"data"`
			} `json:"attachments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload.Role != "user" || payload.Content != "hola" {
			t.Errorf("unexpected payload %+v", payload)
		}
		if len(payload.Attachments) != 1 || payload.Attachments[0].Type != "image" {
			t.Errorf("unexpected attachments %+v", payload.Attachments)
		} else if payload.Attachments[0].Data != base64.StdEncoding.EncodeToString(image) {
			t.Errorf("image not base64 encoded")
		}
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	status, _, err := newClient(t, srv).PostMessage(context.Background(), "thread_1", "hola", image)
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestStartRunAndGetRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads/t/runs":
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			if payload["assistant_id"] != "asst_1" {
				t.Errorf("unexpected assistant id %q", payload["assistant_id"])
			}
			_, _ = w.Write([]byte(`{"id":"run_1","status":"queued"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/threads/t/runs/run_1":
			_, _ = w.Write([]byte(`{"id":"run_1","status":"in_progress"}`))
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newClient(t, srv)
	runID, _, err := c.StartRun(context.Background(), "t", "asst_1")
	if err != nil || runID != "run_1" {
		t.Fatalf("StartRun = %q, %v", runID, err)
	}

	status, _, err := c.GetRun(context.Background(), "t", runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if status != domain.RunInProgress {
		t.Fatalf("expected in_progress, got %q", status)
	}
}

func TestListMessagesLenientText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"role":"assistant","content":[]},
			{"role":"assistant","content":[{"type":"image_file"}]},
			{"role":"assistant","content":[{"type":"text","text":{"value":"A cat."}}]},
			{"role":"user","content":[{"type":"text","text":{"value":"hola"}}]}
		]}`))
	}))
	defer srv.Close()

	msgs, _, err := newClient(t, srv).ListMessages(context.Background(), "t")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "" || msgs[1].Text != "" {
		t.Fatalf("expected empty text for missing content, got %q / %q", msgs[0].Text, msgs[1].Text)
	}
	if msgs[2].Text != "A cat." || msgs[3].Role != domain.RoleUser {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestDeleteThreadReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := newClient(t, srv).DeleteThread(context.Background(), "t"); err == nil {
		t.Fatalf("expected error for 404")
	}
}
