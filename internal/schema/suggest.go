package schema

import (
	"sort"
	"strings"
)

type Suggestion struct {
	Schema string
	Score  float64
	Reason string
}

// Suggest ranks schemas by how well their section labels appear in a header
// row. It never picks one; the caller still chooses the active schema.
func Suggest(schemas []Schema, headers []string) []Suggestion {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		h = strings.ToLower(strings.Join(strings.Fields(h), " "))
		if h != "" {
			norm = append(norm, h)
		}
	}

	out := make([]Suggestion, 0, len(schemas))
	for _, s := range schemas {
		hits := 0
		for _, label := range s.Sections {
			probe := strings.ToLower(label)
			for _, h := range norm {
				if strings.Contains(h, probe) {
					hits++
					break
				}
			}
		}
		score := float64(hits) / float64(len(s.Sections))
		if len(norm) > 0 && len(norm)-1 < len(s.Sections) {
			score *= 0.8
		}
		reason := "headers_negative"
		if score >= 0.5 {
			reason = "headers_positive"
		}
		out = append(out, Suggestion{Schema: s.Name, Score: score, Reason: reason})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
