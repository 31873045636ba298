package llm

import "strings"

// Turn is one message of a conversation as seen by the prompt builder.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormatPrompt flattens a conversation into the labelled transcript the
// generate endpoint expects, ending with an open assistant turn.
func FormatPrompt(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		if t.Role == "user" {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(t.Content)
	}
	sb.WriteString("\nAssistant:")
	return sb.String()
}
