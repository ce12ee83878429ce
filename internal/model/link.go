package model

import "time"

// LinkType classifies the semantic relationship an edge represents.
// Well-known constants are provided below, but link types are extensible;
// any short descriptive string a metadata source produces is valid.
type LinkType string

const (
	LinkParent    LinkType = "parent"
	LinkChild     LinkType = "child"
	LinkRelated   LinkType = "related"
	LinkReference LinkType = "reference"
	LinkEmbeds    LinkType = "embeds"
)

// String returns the string representation of the link type.
func (t LinkType) String() string {
	return string(t)
}

// IsValid reports whether the link type is a non-empty string of at most 50
// characters. Link types are extensible, so any value within the length limit
// is accepted.
func (t LinkType) IsValid() bool {
	return len(t) > 0 && len(t) <= 50
}

// Link records a classified relationship between two nodes. Links are the
// metadata the resolver consults when an edge first appears; they exist
// independently of whether the scene currently draws that edge.
type Link struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Type      LinkType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}
