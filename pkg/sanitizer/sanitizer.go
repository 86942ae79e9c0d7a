package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicy *bluemonday.Policy
	notePolicy *bluemonday.Policy
	initOnce   sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// Names, labels and codes carry no markup at all.
		textPolicy = bluemonday.StrictPolicy()

		// Notes on collections and expenses allow minimal inline
		// formatting. Links are excluded: a donation note is not a place
		// for URLs.
		notePolicy = bluemonday.NewPolicy()
		notePolicy.AllowElements("p", "br", "strong", "b", "em", "i", "ul", "ol", "li")
	})
}

// Text strips all HTML and trims whitespace. Used for donor names, admin
// names, password labels and festival names before they reach storage.
func Text(s string) string {
	initPolicies()
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// Note keeps minimal inline formatting and removes everything dangerous:
// scripts, event handlers, links, embedded media.
func Note(s string) string {
	initPolicies()
	return strings.TrimSpace(notePolicy.Sanitize(s))
}
