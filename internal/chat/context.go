package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/schoolchat/models"
)

const (
	greetingResponse = `Hello! I'm here to help you with information about our schools. Ask me about:

- Academic programs and curriculum
- School hours and schedules
- Contact information and staff directory
- Transportation and bus routes
- School calendar and events
- Enrollment and registration

What would you like to know?`

	farewellResponse = "Thank you for using the district assistant! If you have any more questions about our schools, feel free to ask anytime. Have a great day!"

	blockedResponse = "Please keep your questions appropriate and school-related."

	errorResponse = "I'm sorry, I encountered an error while processing your request. Please try again."
)

var sourcesUsedPattern = regexp.MustCompile(`<sources_used>\[(.*?)\]</sources_used>`)

// ParseAnswer strips the <sources_used>[...]</sources_used> marker from a
// model reply and returns the cited source numbers. A reply without the
// marker cites nothing.
func ParseAnswer(answer string) (string, []int) {
	m := sourcesUsedPattern.FindStringSubmatch(answer)
	if m == nil {
		return strings.TrimSpace(answer), nil
	}
	var used []int
	for _, part := range strings.Split(m[1], ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			used = append(used, n)
		}
	}
	cleaned := sourcesUsedPattern.ReplaceAllString(answer, "")
	return strings.TrimSpace(cleaned), used
}

// BuildContext flattens the reranked passage groups into the numbered
// [Source N] prompt block plus the citation records handed back to the
// frontend. Numbering runs continuously across groups so the model's
// citations map straight onto the combined source list.
func BuildContext(groups ...[]models.Passage) (string, []models.Source) {
	var b strings.Builder
	var sources []models.Source
	counter := 1

	for _, group := range groups {
		for _, p := range group {
			fmt.Fprintf(&b, "[Source %d] meeting_date: %s | source_url: %s | school_domain: %s\n%s\n\n",
				counter, orNA(p.MeetingDate), orNA(p.Origin), orNA(p.Domain), p.Text)

			src := models.Source{
				Filename: fmt.Sprintf("Source %d", counter),
				URL:      p.Origin,
				Location: p.Location,
			}
			if p.Location != "" {
				parts := strings.Split(p.Location, "/")
				if name := parts[len(parts)-1]; name != "" {
					src.Filename = name
				}
			}
			sources = append(sources, src)
			counter++
		}
	}
	return b.String(), sources
}

// CitedSources keeps only the sources the model said it used, in citation
// order. Citations are 1-based; out-of-range numbers are ignored.
func CitedSources(sources []models.Source, used []int) []models.Source {
	var out []models.Source
	for _, n := range used {
		if n >= 1 && n <= len(sources) {
			out = append(out, sources[n-1])
		}
	}
	return out
}

// FormatConversation renders recent history for the answer prompt.
func FormatConversation(msgs []models.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range msgs {
		role := "Assistant"
		if m.Role == "user" {
			role = "Human"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "NA"
	}
	return s
}
