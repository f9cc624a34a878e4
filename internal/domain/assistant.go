package domain

// Assistant is a catalog entry mapping a public slug to a remote assistant identity.
type Assistant struct {
	Slug        string `json:"id" yaml:"id"`
	RemoteID    string `json:"-" yaml:"assistant_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`

	// Instructions are used as the system prompt by backends that have no
	// server-side assistant configuration.
	Instructions string `json:"-" yaml:"instructions"`
}
