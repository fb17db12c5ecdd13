package enrich

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"KhiphopPipeline/internal/domain"
)

const maxProducerNameLen = 50

var (
	producerKeyword   = regexp.MustCompile(`(?i)produced by|producer:|프로듀서:|제작:`)
	producerDelimiter = regexp.MustCompile(`(?i),|\s+and\s+|\s*&\s*`)
)

// ExtractProducers scans copyright notices, then the label, for producer
// credits. Names keep their first-seen order and appear once.
func ExtractProducers(release domain.ReleaseDetails) []string {
	var (
		names []string
		seen  = map[string]struct{}{}
	)

	sources := append(append([]string{}, release.Copyrights...), release.Label)
	for _, text := range sources {
		for _, name := range producersIn(text) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func producersIn(text string) []string {
	var found []string
	for _, loc := range producerKeyword.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if cut := producerDelimiter.FindStringIndex(rest); cut != nil {
			rest = rest[:cut[0]]
		}
		if next := producerKeyword.FindStringIndex(rest); next != nil {
			rest = rest[:next[0]]
		}
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "."))
		if name == "" || utf8.RuneCountInString(name) >= maxProducerNameLen {
			continue
		}
		found = append(found, name)
	}
	return found
}
