package assistants

type idResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type attachment struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type messageRequest struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []attachment `json:"attachments"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

type messageListResponse struct {
	Data []threadMessage `json:"data"`
}

type threadMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string     `json:"type"`
	Text *textValue `json:"text,omitempty"`
}

type textValue struct {
	Value string `json:"value"`
}

// firstText reads content[0].text.value, returning "" when any level is missing.
func (m threadMessage) firstText() string {
	if len(m.Content) == 0 || m.Content[0].Text == nil {
		return ""
	}
	return m.Content[0].Text.Value
}
