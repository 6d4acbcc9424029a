package view

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/raphataylor/WebGraph/pkg/graph"
)

// Detail is the side panel content for a selected node.
type Detail struct {
	Kind graph.NodeKind `json:"kind"`
	ID   string         `json:"id"`

	// Site fields
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	NotesHTML   string   `json:"notesHtml,omitempty"`
	Visits      int      `json:"visits,omitempty"`
	DateCreated string   `json:"dateCreated,omitempty"`
	Favicon     string   `json:"favicon,omitempty"`
	HasSnapshot bool     `json:"hasSnapshot,omitempty"`

	// Tag fields
	Name      string   `json:"name,omitempty"`
	SiteCount int      `json:"siteCount"`
	Sites     []string `json:"sites,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}

// notesPolicy strips scripts and event handlers from user notes while
// keeping ordinary formatting.
var notesPolicy = bluemonday.UGCPolicy()

// SanitizeNotes returns notes safe to embed as HTML.
func SanitizeNotes(notes string) string {
	return notesPolicy.Sanitize(notes)
}

func tagSummary(n int) string {
	return fmt.Sprintf("Tag with %d associated sites", n)
}
