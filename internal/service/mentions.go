package service

import "regexp"

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the usernames mentioned in each text, in order of
// appearance. Repeats are kept unless dedupe is set.
func ExtractMentions(dedupe bool, texts ...string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, text := range texts {
		for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if dedupe {
				if _, ok := seen[name]; ok {
					continue
				}
				seen[name] = struct{}{}
			}
			out = append(out, name)
		}
	}
	return out
}
