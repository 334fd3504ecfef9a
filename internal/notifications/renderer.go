package notifications

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrTemplateNotFound is returned for a message type without a template.
var ErrTemplateNotFound = errors.New("notification template not found")

// Each templates/<message type>.tmpl defines a "subject" and a "body" template.
//
//go:embed templates/*.tmpl
var templatesFS embed.FS

var funcs = template.FuncMap{
	"greeting":  greeting,
	"timestamp": timestamp,
	"duration":  humanDuration,
}

// Renderer turns a NotificationPayload into a subject and a plain-text body.
// It is safe for concurrent use.
type Renderer struct {
	templates map[MessageType]*template.Template
}

// NewRenderer parses the embedded template of every message type.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[MessageType]*template.Template, len(MessageTypes))}

	for _, msg := range MessageTypes {
		file := "templates/" + string(msg) + ".tmpl"
		tmpl, err := template.New(string(msg)).Funcs(funcs).ParseFS(templatesFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		for _, name := range []string{"subject", "body"} {
			if tmpl.Lookup(name) == nil {
				return nil, fmt.Errorf("%s does not define %q", file, name)
			}
		}
		r.templates[msg] = tmpl
	}

	return r, nil
}

// Render returns the subject and body for payload.
func (r *Renderer) Render(payload NotificationPayload) (subject, body string, err error) {
	tmpl, ok := r.templates[payload.MessageType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, payload.MessageType)
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "subject", payload); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", payload.MessageType, err)
	}
	subject = strings.TrimSpace(sb.String())

	sb.Reset()
	if err := tmpl.ExecuteTemplate(&sb, "body", payload); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", payload.MessageType, err)
	}

	return subject, strings.TrimSpace(sb.String()) + "\n", nil
}

// greeting title-cases name, or falls back to "there" when it is blank.
func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	// A Caser keeps state between calls and must not be shared.
	return cases.Title(language.English).String(name)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "an unknown date"
	}
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

// humanDuration spells out a code lifetime: "45 seconds", "10 minutes", "1 hour 30 minutes".
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return plural(int(d.Seconds()), "second")
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	switch {
	case hours == 0:
		return plural(minutes, "minute")
	case minutes == 0:
		return plural(hours, "hour")
	default:
		return plural(hours, "hour") + " " + plural(minutes, "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
