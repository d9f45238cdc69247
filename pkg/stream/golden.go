package stream

import "strings"

// GoldenLines renders a pre-recorded reference log: the content is trimmed,
// split into lines, and every line whose trimmed text starts with "##" is
// dropped. It is stateless and never touches a Classifier.
func GoldenLines(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "##") {
			continue
		}
		out = append(out, line)
	}
	return out
}
