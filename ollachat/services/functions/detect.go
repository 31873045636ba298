package functions

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"ollachat/ollachat/utils/jsonutils"
)

// CurrentChat stands in for the chat id when the text does not name one.
const CurrentChat = "current"

type detector struct {
	name     string
	patterns []*regexp.Regexp
	build    func(m []string, now time.Time) map[string]any
}

var detectors = []detector{
	{
		name: "get_weather",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)погода\s+(?:в\s+)?([^.!?]+)`),
			regexp.MustCompile(`(?i)weather\s+(?:in\s+)?([^.!?]+)`),
		},
		build: func(m []string, _ time.Time) map[string]any {
			return map[string]any{"location": strings.TrimSpace(m[1])}
		},
	},
	{
		name: "send_email",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)відправити\s+емейл\s+(?:на\s+)?(\S+)\s+(?:з\s+темою\s+)?([^.!?]+)`),
			regexp.MustCompile(`(?i)send\s+(?:an\s+)?email\s+(?:to\s+)?(\S+)\s+(?:with\s+subject\s+)?([^.!?]+)`),
		},
		build: func(m []string, _ time.Time) map[string]any {
			return map[string]any{
				"to":      m[1],
				"subject": strings.TrimSpace(m[2]),
				"body":    "Email content from AI assistant",
			}
		},
	},
	{
		name: "add_calendar_event",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)додати\s+(?:зустріч|подію)\s+(?:з\s+назвою\s+)?([^.!?]+)`),
			regexp.MustCompile(`(?i)add\s+(?:a\s+)?(?:meeting|event)\s+(?:(?:called|titled|named)\s+)?([^.!?]+)`),
		},
		build: func(m []string, now time.Time) map[string]any {
			start := now.Add(time.Hour)
			end := start.Add(time.Hour)
			return map[string]any{
				"title":       strings.TrimSpace(m[1]),
				"start_time":  start.UTC().Format(time.RFC3339),
				"end_time":    end.UTC().Format(time.RFC3339),
				"description": "Event created by AI assistant",
			}
		},
	},
	{
		name: "list_files",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)показати\s+(?:файли|документи)`),
			regexp.MustCompile(`(?i)show\s+(?:my\s+)?(?:files|documents)`),
		},
		build: func(_ []string, _ time.Time) map[string]any {
			return map[string]any{"chat_id": CurrentChat}
		},
	},
	{
		name: "search_files",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)знайти\s+(?:в\s+файлах\s+)?([^.!?]+)`),
			regexp.MustCompile(`(?i)find\s+(?:in\s+files\s+)?([^.!?]+)`),
		},
		build: func(m []string, _ time.Time) map[string]any {
			return map[string]any{
				"chat_id": CurrentChat,
				"query":   strings.TrimSpace(m[1]),
			}
		},
	},
}

// Detect finds function calls in free text: an explicit JSON call block
// first, then the phrase patterns. Each function is detected at most once.
// chatID, when set, replaces the CurrentChat placeholder.
func (r *Registry) Detect(text, chatID string, now time.Time) []Call {
	calls := []Call{}
	seen := map[string]bool{}

	if call, ok := r.jsonCall(text); ok {
		calls = append(calls, call)
		seen[call.Name] = true
	}
	for _, d := range detectors {
		if seen[d.name] {
			continue
		}
		for _, re := range d.patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			calls = append(calls, Call{Name: d.name, Arguments: d.build(m, now)})
			seen[d.name] = true
			break
		}
	}

	if chatID != "" {
		for _, c := range calls {
			if c.Arguments["chat_id"] == CurrentChat {
				c.Arguments["chat_id"] = chatID
			}
		}
	}
	return calls
}

// jsonCall accepts {"name": ..., "arguments": {...}} blocks, fenced or bare,
// naming a registered function.
func (r *Registry) jsonCall(text string) (Call, bool) {
	if !strings.Contains(text, "{") {
		return Call{}, false
	}
	var call Call
	if err := json.Unmarshal([]byte(jsonutils.ExtractJSON(text)), &call); err != nil {
		return Call{}, false
	}
	if call.Name == "" || !r.Has(call.Name) {
		return Call{}, false
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	return call, true
}
