// Package bookmarks owns the canonical Space: tags, sites and their relation.
// Every mutation is a full read-modify-write of the Space record.
package bookmarks

// Data is the persisted record. Only Spaces[0] is read or written.
type Data struct {
	Spaces []Space `json:"spaces"`
}

// Space is the single active workspace.
type Space struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tags  []Tag  `json:"tags"`
	Sites []Site `json:"sites"`
}

// Tag is a named label; its name is unique case-insensitively within a Space.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Site is a saved bookmark. Tags holds canonical tag names, not ids.
type Site struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	DateCreated string   `json:"dateCreated"`
	Visits      int      `json:"visits"`
	Notes       string   `json:"notes"`
	Favicon     string   `json:"favicon"`
	SnapshotRef string   `json:"snapshotRef,omitempty"`
}

// SiteInput is the payload of AddBookmark. Zero values pick the defaults.
type SiteInput struct {
	Title       string   `json:"title" validate:"max=2048"`
	URL         string   `json:"url" validate:"required,url"`
	Tags        []string `json:"tags" validate:"max=64,dive,max=128"`
	DateCreated string   `json:"dateCreated" validate:"omitempty,datetime=2006-01-02"`
	Visits      int      `json:"visits" validate:"gte=0"`
	Notes       string   `json:"notes"`
	Favicon     string   `json:"favicon" validate:"omitempty,url"`
	SnapshotRef string   `json:"snapshotRef"`
}

// SitePatch lists the fields UpdateBookmark may change; nil means untouched.
type SitePatch struct {
	Title       *string   `json:"title,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Favicon     *string   `json:"favicon,omitempty"`
	Visits      *int      `json:"visits,omitempty"`
	SnapshotRef *string   `json:"snapshotRef,omitempty"`
}

// DefaultTitle is used when a bookmark is added without a title.
const DefaultTitle = "Untitled"

// DefaultSpace returns the empty Space synthesized on first use.
func DefaultSpace() Space {
	return Space{
		ID:    "space1",
		Name:  "Personal Bookmarks",
		Tags:  []Tag{},
		Sites: []Site{},
	}
}

// Clone returns a deep copy of sp.
func (sp Space) Clone() Space {
	out := sp
	out.Tags = append([]Tag{}, sp.Tags...)
	out.Sites = make([]Site, len(sp.Sites))
	for i, site := range sp.Sites {
		out.Sites[i] = site.Clone()
	}
	return out
}

// Clone returns a deep copy of s.
func (s Site) Clone() Site {
	out := s
	out.Tags = append([]string{}, s.Tags...)
	return out
}

// HasTag reports whether the site carries name, compared case-insensitively.
func (s Site) HasTag(name string) bool {
	for _, t := range s.Tags {
		if equalFold(t, name) {
			return true
		}
	}
	return false
}
