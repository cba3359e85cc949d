package book

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"readsync/internal/apperr"
	"readsync/pkg/models"
)

const (
	msgBadCoverURL = "Cover image URL must start with http or https."
	msgBadStatus   = "Invalid status value."
)

var coverURLRe = regexp.MustCompile(`(?i)^https?://`)

// Normalize turns a decoded JSON body into typed fields. Keys missing from raw
// stay unset; title, author, isbn, cover_url and status are only read when
// they are strings.
func Normalize(raw map[string]any) (Fields, error) {
	var f Fields

	if s, ok := raw["title"].(string); ok {
		f.Title = Some(strings.TrimSpace(s))
	}
	if s, ok := raw["author"].(string); ok {
		f.Author = Some(strings.TrimSpace(s))
	}
	if v, ok := raw["pages"]; ok {
		if n, valid := parseInt(v); valid && n >= 0 {
			f.Pages = Some(n)
		} else {
			f.Pages = Null[int]()
		}
	}
	if v, ok := raw["current_page"]; ok {
		if n, valid := parseInt(v); valid && n >= 0 {
			f.CurrentPage = Some(n)
		} else {
			f.CurrentPage = Some(0)
		}
	}
	if s, ok := raw["isbn"].(string); ok {
		f.ISBN = optString(strings.TrimSpace(s))
	}
	if s, ok := raw["cover_url"].(string); ok {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			f.CoverURL = Null[string]()
		case !coverURLRe.MatchString(s):
			return Fields{}, apperr.InvalidInput(msgBadCoverURL)
		default:
			f.CoverURL = Some(s)
		}
	}
	if s, ok := raw["status"].(string); ok {
		status, valid := models.ParseBookStatus(s)
		if !valid {
			return Fields{}, apperr.InvalidInput(msgBadStatus)
		}
		f.Status = Some(status)
	}
	if v, ok := raw["start_date"]; ok {
		f.StartDate = optDate(v)
	}
	if v, ok := raw["end_date"]; ok {
		f.EndDate = optDate(v)
	}
	return f, nil
}

func optString(s string) Opt[string] {
	if s == "" {
		return Null[string]()
	}
	return Some(s)
}

// optDate maps falsy values (null, "", false, 0) to null and passes anything
// else through as text.
func optDate(v any) Opt[string] {
	switch t := v.(type) {
	case nil:
		return Null[string]()
	case string:
		return optString(t)
	case bool:
		if !t {
			return Null[string]()
		}
	case float64:
		if t == 0 {
			return Null[string]()
		}
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return Null[string]()
		}
	}
	return Some(toText(v))
}

// parseInt reads the leading base-10 integer of v's text form, so 12.7 and
// "12 pages" both give 12. Values with no leading digits are invalid.
func parseInt(v any) (int, bool) {
	s := strings.TrimSpace(toText(v))
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
