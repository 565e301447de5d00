// Package sanitize normalizes and bounds untrusted text before it enters
// the system. It is applied to customer- and operator-authored content
// only; automated-responder output and system-generated fields pass
// through untouched.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
)

// MaxMessageLength is the maximum accepted content length in runes.
const MaxMessageLength = 2000

var (
	ErrEmpty   = errors.New("message cannot be empty")
	ErrTooLong = fmt.Errorf("message exceeds maximum length of %d characters", MaxMessageLength)
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
	"/", "&#47;",
)

// collapser undoes the double-escaping the first pass produces on input
// that was already sanitized, which makes Clean idempotent.
var collapser = strings.NewReplacer(
	"&amp;amp;", "&amp;",
	"&amp;lt;", "&lt;",
	"&amp;gt;", "&gt;",
	"&amp;#34;", "&#34;",
	"&amp;#39;", "&#39;",
	"&amp;#47;", "&#47;",
)

// Validate rejects empty-after-trim content and content over
// MaxMessageLength, each with a distinct user-facing reason.
func Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmpty
	}
	if len([]rune(trimmed)) > MaxMessageLength {
		return ErrTooLong
	}
	return nil
}

// Clean trims surrounding whitespace, truncates to MaxMessageLength runes
// as a backstop even after validation, and neutralizes markup-significant
// characters so no downstream renderer can interpret them.
func Clean(text string) string {
	trimmed := strings.TrimSpace(text)

	runes := []rune(trimmed)
	if len(runes) > MaxMessageLength {
		trimmed = string(runes[:MaxMessageLength])
	}

	return collapser.Replace(escaper.Replace(trimmed))
}
