package backend

import "regexp"

// Google Calendar exposes the event ID in more than one URL shape.
var eventIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/events/([^/?#]+)`),
	regexp.MustCompile(`eid=([^&]+)`),
	regexp.MustCompile(`calendar/event\?eid=([^&]+)`),
}

// ExtractEventID pulls the calendar event ID out of an event URL. It returns
// an empty string when the URL matches none of the known shapes.
func ExtractEventID(url string) string {
	if url == "" {
		return ""
	}
	for _, pattern := range eventIDPatterns {
		if m := pattern.FindStringSubmatch(url); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return ""
}
