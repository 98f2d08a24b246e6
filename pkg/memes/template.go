package memes

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// CanvasSize is the side of the square canvas slot coordinates refer to.
const CanvasSize = 1024

//go:embed templates.toml
var builtinTOML string

// Slot is one caption position on a template.
type Slot struct {
	Key      string  `toml:"key" json:"key"`
	X        float64 `toml:"x" json:"x"`
	Y        float64 `toml:"y" json:"y"`
	Width    float64 `toml:"width" json:"width"`
	MaxChars int     `toml:"max_chars" json:"max_chars"`
	Center   bool    `toml:"center" json:"center"`
	Hint     string  `toml:"hint" json:"hint"`
}

// Template describes a meme format: how to ask for its image, how to ask
// for its caption, and where the caption goes.
type Template struct {
	Name        string            `toml:"name" json:"name"`
	Title       string            `toml:"title" json:"title"`
	Description string            `toml:"description" json:"description"`
	Brief       string            `toml:"brief" json:"-"`
	ImagePrompt string            `toml:"image_prompt" json:"-"`
	Slots       []Slot            `toml:"slots" json:"slots"`
	Fallback    map[string]string `toml:"fallback" json:"-"`
}

// CaptionPrompt asks for this template's caption about a headline, as a
// JSON object with one key per slot.
func (t Template) CaptionPrompt(headline string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %q\n\n", t.Brief, headline)
	b.WriteString("Make it funny and relatable to AI developers/enthusiasts.\n")
	b.WriteString("Return only valid JSON in this exact format:\n{")
	for i, s := range t.Slots {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %q", s.Key, fmt.Sprintf("%s (max %d chars)", s.Hint, s.MaxChars))
	}
	b.WriteString("}")
	return b.String()
}

// ImagePromptFor is the image generation prompt for a headline.
func (t Template) ImagePromptFor(headline string) string {
	if r := []rune(headline); len(r) > 60 {
		headline = string(r[:60])
	}
	return t.ImagePrompt + "\n\n" +
		fmt.Sprintf("Context: Related to AI/technology news about %q...\n\n", headline) +
		"Style requirements:\n" +
		"- Professional meme format suitable for social media\n" +
		"- High contrast colors for text readability\n" +
		"- Clean, modern illustration style\n" +
		"- Clear designated areas for text placement\n" +
		"- 1024x1024 square format"
}

// FitCaption keeps the slot keys of caption, trimmed and cut to each slot's
// length limit. Slots the caption leaves empty take the fallback text.
func (t Template) FitCaption(caption map[string]string) map[string]string {
	out := make(map[string]string, len(t.Slots))
	for _, s := range t.Slots {
		text := strings.TrimSpace(caption[s.Key])
		if text == "" {
			text = t.Fallback[s.Key]
		}
		if r := []rune(text); s.MaxChars > 0 && len(r) > s.MaxChars {
			text = strings.TrimSpace(string(r[:s.MaxChars]))
		}
		if text != "" {
			out[s.Key] = text
		}
	}
	return out
}

func (t Template) validate() error {
	if t.Name == "" {
		return errors.New(errors.ErrCodeInvalidTemplate, "template without a name")
	}
	if len(t.Slots) == 0 {
		return errors.New(errors.ErrCodeInvalidTemplate, "template %q has no caption slots", t.Name)
	}
	seen := make(map[string]bool, len(t.Slots))
	for _, s := range t.Slots {
		if s.Key == "" || seen[s.Key] {
			return errors.New(errors.ErrCodeInvalidTemplate, "template %q: empty or duplicate slot key %q", t.Name, s.Key)
		}
		if s.Width <= 0 {
			return errors.New(errors.ErrCodeInvalidTemplate, "template %q: slot %q has no width", t.Name, s.Key)
		}
		seen[s.Key] = true
	}
	return nil
}

// Catalog is an ordered set of templates.
type Catalog struct {
	templates []Template
	byName    map[string]int
}

type catalogFile struct {
	Templates []Template `toml:"template"`
}

// ParseCatalog reads a catalog from TOML.
func ParseCatalog(data string) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "parse template catalog")
	}
	return NewCatalog(f.Templates...)
}

// LoadCatalog reads a catalog from a TOML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read template catalog")
	}
	return ParseCatalog(string(data))
}

// DefaultCatalog returns the built-in templates.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(builtinTOML)
	if err != nil {
		panic(fmt.Sprintf("memes: built-in catalog: %v", err))
	}
	return c
}

// NewCatalog builds a catalog. It needs at least one template; names must
// be unique.
func NewCatalog(templates ...Template) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "template catalog is empty")
	}
	c := &Catalog{byName: make(map[string]int, len(templates))}
	for _, t := range templates {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidTemplate, "duplicate template %q", t.Name)
		}
		c.byName[t.Name] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// Templates returns the templates in catalog order.
func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}

// Get looks a template up by name.
func (c *Catalog) Get(name string) (Template, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// Pick returns the i-th template, wrapping around the catalog.
func (c *Catalog) Pick(i int) Template {
	n := len(c.templates)
	return c.templates[((i%n)+n)%n]
}
