package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dm-insight-core/server/internal/agent/variables"
	errx "github.com/dm-insight-core/server/internal/core/error"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxKeys       = 200       // maximum number of object keys to inspect
	maxValueLen   = 4 * 1024  // 4KB per string value
	maxErrSnippet = 200       // limit error snippet size
)

var fenceReplacer = strings.NewReplacer("```json", "", "```", "")

// Extraction is the parsed model output. Values holds the schema keys with
// non-null values only; Dropped lists keys the model produced outside the
// schema. RawKeys counts every key of the decoded object, nulls included.
type Extraction struct {
	Values  map[string]any
	Dropped []string
	RawKeys int
}

// Empty reports whether the model produced no keys at all. An object whose
// keys were all null or filtered out is not empty.
func (e *Extraction) Empty() bool {
	return e == nil || e.RawKeys == 0
}

// ParseExtraction decodes the extractor's JSON answer and filters it to the
// schema's keys. Code fences around the object are tolerated.
func ParseExtraction(content string, sch *variables.Schema) (out *Extraction, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "extraction_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("extraction parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			out = nil
		}
	}()

	if len(content) > maxContentLen {
		return nil, fmt.Errorf("extraction too large: %d bytes", len(content))
	}
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("extraction invalid utf8")
	}

	body := strings.TrimSpace(fenceReplacer.Replace(content))
	out = &Extraction{Values: map[string]any{}}
	if body == "" || body == "null" {
		return out, nil
	}
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("extraction not json object: %s", safeSnippet(body))
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode extraction: %w (%s)", err, safeSnippet(body))
	}
	if len(raw) > maxKeys {
		return nil, fmt.Errorf("extraction has too many keys: %d", len(raw))
	}
	out.RawKeys = len(raw)

	for k, v := range raw {
		key := strings.TrimSpace(k)
		if !sch.Allowed(key) {
			out.Dropped = append(out.Dropped, k)
			continue
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && len(s) > maxValueLen {
			logx.Warn().Str("component", "extraction_parser").Str("key", key).Int("len", len(s)).
				Msg("value dropped due to size limit")
			continue
		}
		out.Values[key] = v
	}
	return out, nil
}

// numberPattern matches the first digit run plus any directly following
// Korean magnitude units.
var numberPattern = regexp.MustCompile(`(\d+)\s*([천만억]*)`)

var unitScale = map[rune]int{
	'천': 1_000,
	'만': 10_000,
	'억': 100_000_000,
}

// FallbackNumber returns the first number in utterance with thousands
// separators removed, scaled by trailing units ("4만원" → 40000, "2천만" →
// 20000000). A value that does not fit in an int is rejected.
func FallbackNumber(utterance string) (int, bool) {
	m := numberPattern.FindStringSubmatch(strings.ReplaceAll(utterance, ",", ""))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	for _, r := range m[2] {
		scale := unitScale[r]
		if n > math.MaxInt/scale {
			return 0, false
		}
		n *= scale
	}
	return n, true
}

// --- helpers ---

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
