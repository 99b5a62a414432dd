package rage

import "strings"

// descriptorTextLimit is the maximum number of characters of element text
// included in a descriptor.
const descriptorTextLimit = 30

// Target identifies the UI element a click landed on, as reported by the
// browser agent.
type Target struct {
	Tag     string `json:"tag"`
	ID      string `json:"id"`
	Classes string `json:"classes"`
	Text    string `json:"text"`
}

// Describe produces the short human-readable descriptor for a target:
// the lowercased tag, "#id" when the element has an identifier, "." plus
// the first style class only, and the trimmed element text truncated to
// descriptorTextLimit characters in quotes (omitted entirely when empty).
//
// The descriptor doubles as the debounce key, so equal elements must
// produce byte-equal descriptors. A target without a tag has no
// identifiable element; Describe returns "" and callers drop the event.
func Describe(t Target) string {
	if t.Tag == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(strings.ToLower(t.Tag))

	if t.ID != "" {
		sb.WriteString("#")
		sb.WriteString(t.ID)
	}

	if classes := strings.Fields(t.Classes); len(classes) > 0 {
		sb.WriteString(".")
		sb.WriteString(classes[0])
	}

	if text := strings.TrimSpace(t.Text); text != "" {
		runes := []rune(text)
		if len(runes) > descriptorTextLimit {
			runes = runes[:descriptorTextLimit]
		}
		sb.WriteString(` "`)
		sb.WriteString(string(runes))
		sb.WriteString(`"`)
	}

	return sb.String()
}
