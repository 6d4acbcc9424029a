package bookmarks

import "strings"

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// normalizeNames trims names, drops empties and removes case-insensitive
// duplicates, keeping the first spelling.
func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func (sp *Space) tagIndexByName(name string) int {
	for i, t := range sp.Tags {
		if equalFold(t.Name, name) {
			return i
		}
	}
	return -1
}

func (sp *Space) tagIndexByID(id string) int {
	for i, t := range sp.Tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (sp *Space) siteIndex(id string) int {
	for i, s := range sp.Sites {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (sp *Space) hasTagID(id string) bool  { return sp.tagIndexByID(id) >= 0 }
func (sp *Space) hasSiteID(id string) bool { return sp.siteIndex(id) >= 0 }

// resolveTags maps names onto existing tags, creating the missing ones, and
// returns the canonical names in input order.
func (sp *Space) resolveTags(names []string, ids IDGenerator) []string {
	names = normalizeNames(names)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if i := sp.tagIndexByName(n); i >= 0 {
			out = append(out, sp.Tags[i].Name)
			continue
		}
		tag := Tag{ID: ids.Next("tag", sp.hasTagID), Name: n}
		sp.Tags = append(sp.Tags, tag)
		out = append(out, tag.Name)
	}
	return out
}

// removeOrphans drops every tag no site references and returns them.
func (sp *Space) removeOrphans() []Tag {
	used := make(map[string]bool)
	for _, s := range sp.Sites {
		for _, n := range s.Tags {
			used[strings.ToLower(n)] = true
		}
	}
	var removed []Tag
	kept := sp.Tags[:0]
	for _, t := range sp.Tags {
		if used[strings.ToLower(t.Name)] {
			kept = append(kept, t)
		} else {
			removed = append(removed, t)
		}
	}
	sp.Tags = kept
	return removed
}

// stripTag removes name from every site's tag list.
func (sp *Space) stripTag(name string) {
	for i := range sp.Sites {
		sp.Sites[i].Tags = removeName(sp.Sites[i].Tags, name)
	}
}

// renameTag rewrites every reference to from as to.
func (sp *Space) renameTag(from, to string) {
	for i := range sp.Sites {
		for j, n := range sp.Sites[i].Tags {
			if equalFold(n, from) {
				sp.Sites[i].Tags[j] = to
			}
		}
	}
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if !equalFold(n, name) {
			out = append(out, n)
		}
	}
	return out
}
