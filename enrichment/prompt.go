package enrichment

import (
	"fmt"
	"strings"
)

// fieldOrder fixes the order fields appear in prompts and response schemas so
// prompt construction stays deterministic for a given input.
var fieldOrder = []string{"title", "description", "caption", "author", "tags"}

// orderFields returns the requested fields in canonical order, dropping
// anything the client does not know how to ask for.
func orderFields(fields []string) []string {
	requested := make(map[string]bool, len(fields))
	for _, f := range fields {
		requested[f] = true
	}
	out := make([]string, 0, len(fields))
	for _, f := range fieldOrder {
		if requested[f] {
			out = append(out, f)
		}
	}
	return out
}

// BuildPrompt produces the completion prompt for one image. It is pure: the
// same image name, known fields, and missing-field set always yield the same
// text.
func BuildPrompt(imageName string, known map[string]string, missing []string) string {
	var b strings.Builder
	b.WriteString("You are cataloguing a piece of artwork for a small personal gallery.\n")
	fmt.Fprintf(&b, "Image file name: %s\n", imageName)

	wroteKnown := false
	for _, field := range fieldOrder {
		value := strings.TrimSpace(known[field])
		if value == "" {
			continue
		}
		if !wroteKnown {
			b.WriteString("Known metadata (do not repeat or contradict it):\n")
			wroteKnown = true
		}
		fmt.Fprintf(&b, "- %s: %s\n", field, value)
	}

	ordered := orderFields(missing)
	fmt.Fprintf(&b, "Look at the image and provide values for: %s.\n", strings.Join(ordered, ", "))
	b.WriteString("Respond with a single JSON object containing exactly those keys and no others. ")
	b.WriteString("Keep the title short and evocative, the description one or two sentences. ")
	b.WriteString("If tags are requested, return an array of short lowercase keywords.")
	return b.String()
}
