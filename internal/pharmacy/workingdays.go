package pharmacy

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var dayCaser = cases.Title(language.English)

// NormalizeWorkingDays converts any accepted working-days representation into
// a single ordered list of title-cased day names.
//
// Accepted inputs:
//   - nil (no working days)
//   - []string, from repeated multipart fields
//   - []any of strings, from a decoded JSON array
//   - string holding a JSON array, e.g. `["Mon","Tue"]`
//   - string holding comma-separated names, e.g. "Mon, Tue"
//
// Entries are trimmed, empty entries dropped, and duplicates removed keeping
// the first occurrence.
func NormalizeWorkingDays(input any) ([]string, error) {
	var raw []string

	switch v := input.(type) {
	case nil:
	case []string:
		raw = v
	case []any:
		raw = make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrInvalidWorkingDays, i, item)
			}
			raw = append(raw, s)
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidWorkingDays, err)
			}
		} else {
			raw = strings.Split(trimmed, ",")
		}
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidWorkingDays, input)
	}

	days := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, d := range raw {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		d = dayCaser.String(d)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	return days, nil
}
