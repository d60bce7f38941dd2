package helper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 30
)

var (
	reNonAlnum     = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen       = regexp.MustCompile(`-+`)
	reNonUsername  = regexp.MustCompile(`[^a-z0-9_]+`)
	reUnderscore   = regexp.MustCompile(`_+`)
	reUsernameFull = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// stripDiacritics turns "José" into "Jose".
func stripDiacritics(s string) string {
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	return string(buf)
}

// Slugify maps free text to [a-z0-9-], falling back to "item".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = stripDiacritics(strings.ToLower(strings.TrimSpace(s)))
	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// NormalizeUsername lowercases and trims user input before validation.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func IsValidUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= UsernameMinLen && n <= UsernameMaxLen && reUsernameFull.MatchString(s)
}

// UsernameFromEmail derives the server-generated username for a new account,
// e.g. "José.Silva+ref@mail.com" -> "jose_silva_ref".
func UsernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	s := stripDiacritics(strings.ToLower(strings.TrimSpace(local)))
	s = reNonUsername.ReplaceAllString(s, "_")
	s = reUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if utf8.RuneCountInString(s) > UsernameMaxLen-6 {
		s = strings.Trim(string([]rune(s)[:UsernameMaxLen-6]), "_")
	}
	for utf8.RuneCountInString(s) < UsernameMinLen {
		s += "0"
	}
	return s
}

// EnsureUniqueUsernameCI appends _2, _3, ... until the value is free
// (case-insensitive) in table.column, then falls back to a short random suffix.
func EnsureUniqueUsernameCI(ctx context.Context, db *gorm.DB, table, column, base string) (string, error) {
	candidate := base
	for i := 0; i < 25; i++ {
		var count int64
		if err := db.WithContext(ctx).Table(table).
			Where(fmt.Sprintf("LOWER(%s) = ?", column), strings.ToLower(candidate)).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = trimForSuffix(base, fmt.Sprintf("_%d", i+2), UsernameMaxLen)
	}
	return trimForSuffix(base, fmt.Sprintf("_%x", time.Now().UnixNano()&0xffff), UsernameMaxLen), nil
}

// trimForSuffix cuts base so base+suffix fits maxLen.
func trimForSuffix(base, suffix string, maxLen int) string {
	rs := []rune(base)
	keep := maxLen - len(suffix)
	if keep < 1 {
		keep = 1
	}
	if len(rs) > keep {
		rs = rs[:keep]
	}
	out := strings.Trim(string(rs), "_-")
	if out == "" {
		out = "x"
	}
	return out + suffix
}
