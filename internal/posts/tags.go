package posts

import (
	"slices"
	"strings"
)

// AddTag appends the trimmed tag unless it is blank or already present.
// It reports whether tags changed.
func AddTag(tags []string, tag string) ([]string, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(tags, tag) {
		return tags, false
	}
	return append(slices.Clone(tags), tag), true
}

func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// FilterByTag keeps posts carrying tag, preserving order. An empty tag
// returns the list unchanged.
func FilterByTag(list []*Post, tag string) []*Post {
	if tag == "" {
		return list
	}
	out := make([]*Post, 0, len(list))
	for _, p := range list {
		if slices.Contains(p.Tags, tag) {
			out = append(out, p)
		}
	}
	return out
}

// TagIndex is the union of all tags in list, in first-seen order.
func TagIndex(list []*Post) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range list {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
