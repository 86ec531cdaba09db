package textutil

import "strings"

var cleaner = strings.NewReplacer(
	"**", "",
	`\n`, "\n",
)

// Clean strips bold markers and turns literal "\n" escapes emitted by the
// models into real line breaks, then trims surrounding whitespace.
func Clean(raw string) string {
	return strings.TrimSpace(cleaner.Replace(raw))
}
