package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/osteele/liquid"

	"github.com/ignite/commerce-insights/internal/domain"
)

// DefaultKeyTemplate places each export under its segment id.
const DefaultKeyTemplate = "segments/{{ segment.id }}/{{ generated_at }}.csv"

const keyTimeLayout = "20060102T150405Z"

// KeyRenderer renders S3 object keys from a Liquid template. Bindings:
// segment.id, segment.name, generated_at (compact UTC timestamp) and
// generated (time, for the date filter). The slug filter lowercases and
// hyphenates a value.
type KeyRenderer struct {
	tpl *liquid.Template
}

// NewKeyRenderer parses tmpl, falling back to DefaultKeyTemplate when empty.
func NewKeyRenderer(tmpl string) (*KeyRenderer, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultKeyTemplate
	}

	engine := liquid.NewEngine()
	engine.RegisterFilter("slug", slug)

	tpl, err := engine.ParseString(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse export key template: %w", err)
	}
	return &KeyRenderer{tpl: tpl}, nil
}

// Render returns the object key for an export of s generated at t.
func (k *KeyRenderer) Render(s *domain.Segment, t time.Time) (string, error) {
	t = t.UTC()
	out, err := k.tpl.RenderString(liquid.Bindings{
		"segment": map[string]interface{}{
			"id":   s.ID,
			"name": s.Name,
		},
		"generated_at": t.Format(keyTimeLayout),
		"generated":    t,
	})
	if err != nil {
		return "", fmt.Errorf("render export key: %w", err)
	}
	key := strings.TrimLeft(strings.TrimSpace(out), "/")
	if key == "" {
		return "", fmt.Errorf("render export key: template produced an empty key")
	}
	return key, nil
}

func slug(v interface{}) string {
	s := strings.ToLower(fmt.Sprint(v))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
