package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Blueprint is the structured description of a site derived from a brief.
// It is produced once per job and treated as read-only afterwards.
type Blueprint struct {
	ClientName   string         `json:"client_name" validate:"required"`
	Pages        []Page         `json:"pages" validate:"required,min=1,dive"`
	DesignSystem map[string]any `json:"design_system,omitempty"`
	Features     []string       `json:"features,omitempty"`
}

// Page is one routable page of the site.
type Page struct {
	ID       string    `json:"id"`
	Name     string    `json:"name" validate:"required"`
	Path     string    `json:"path" validate:"required,startswith=/"`
	Sections []Section `json:"sections" validate:"dive"`
}

// Section groups the components rendered on a page, in order.
type Section struct {
	Name       string      `json:"name"`
	Components []Component `json:"components" validate:"dive"`
}

// Component is a blueprint-level reference to a generated UI fragment.
// Name is the join key between the blueprint and the generated artifacts.
type Component struct {
	Name  string         `json:"name" validate:"required"`
	Type  string         `json:"type,omitempty"`
	Props map[string]any `json:"props,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural invariants of the blueprint.
func (b *Blueprint) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid blueprint: %w", err)
	}
	return nil
}

// ComponentNames returns every distinct component name referenced by the
// blueprint, in first-seen order.
func (b *Blueprint) ComponentNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range b.Pages {
		for _, s := range p.Sections {
			for _, c := range s.Components {
				if seen[c.Name] {
					continue
				}
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		}
	}
	return names
}

// Component returns the first component with the given name.
func (b *Blueprint) Component(name string) (Component, bool) {
	for _, p := range b.Pages {
		for _, s := range p.Sections {
			for _, c := range s.Components {
				if c.Name == name {
					return c, true
				}
			}
		}
	}
	return Component{}, false
}

// FeatureList returns the declared features, falling back to the distinct
// component types when none were declared.
func (b *Blueprint) FeatureList() []string {
	if len(b.Features) > 0 {
		return b.Features
	}
	var types []string
	for _, p := range b.Pages {
		for _, s := range p.Sections {
			for _, c := range s.Components {
				if c.Type != "" && !slices.Contains(types, c.Type) {
					types = append(types, c.Type)
				}
			}
		}
	}
	return types
}

// DesignToken returns a string design token or the fallback. Tokens are
// looked up at the top of the design system and then under styleTokens.
func (b *Blueprint) DesignToken(key, fallback string) string {
	if v, ok := b.DesignSystem[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	for _, nested := range []string{"styleTokens", "style_tokens"} {
		tokens, ok := b.DesignSystem[nested].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := tokens[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return fallback
}

// UnmarshalJSON accepts the canonical blueprint shape as well as the
// camelCase keys some generations produce.
func (b *Blueprint) UnmarshalJSON(data []byte) error {
	var raw struct {
		ClientName    string         `json:"client_name"`
		ClientNameAlt string         `json:"clientName"`
		Pages         []Page         `json:"pages"`
		DesignSystem  map[string]any `json:"design_system"`
		DesignAlt     map[string]any `json:"designSystem"`
		Features      []string       `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.ClientName = firstNonEmpty(raw.ClientName, raw.ClientNameAlt)
	b.Pages = raw.Pages
	b.DesignSystem = raw.DesignSystem
	if b.DesignSystem == nil {
		b.DesignSystem = raw.DesignAlt
	}
	b.Features = raw.Features
	return nil
}

// UnmarshalJSON normalizes page aliases (page_name, page_path, page_id) and
// synthesizes a path from the name when none is given.
func (p *Page) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string      `json:"id"`
		PageID     string      `json:"page_id"`
		Name       string      `json:"name"`
		PageName   string      `json:"page_name"`
		Title      string      `json:"title"`
		Path       string      `json:"path"`
		PagePath   string      `json:"page_path"`
		Sections   []Section   `json:"sections"`
		Components []Component `json:"components"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = firstNonEmpty(raw.ID, raw.PageID)
	p.Name = firstNonEmpty(raw.Name, raw.PageName, raw.Title)
	p.Path = firstNonEmpty(raw.Path, raw.PagePath)
	p.Sections = raw.Sections
	if len(p.Sections) == 0 && len(raw.Components) > 0 {
		p.Sections = []Section{{Name: "main", Components: raw.Components}}
	}
	if p.Path == "" {
		p.Path = PathFromName(p.Name)
	} else if !strings.HasPrefix(p.Path, "/") {
		p.Path = "/" + p.Path
	}
	if p.ID == "" {
		p.ID = strings.Trim(p.Path, "/")
		if p.ID == "" {
			p.ID = "home"
		}
	}
	return nil
}

// UnmarshalJSON normalizes the section_name alias.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string      `json:"name"`
		SectionName string      `json:"section_name"`
		Components  []Component `json:"components"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Name = firstNonEmpty(raw.Name, raw.SectionName)
	s.Components = raw.Components
	return nil
}

// UnmarshalJSON normalizes the componentName, component_name and
// component_type aliases.
func (c *Component) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string         `json:"name"`
		ComponentName string         `json:"componentName"`
		SnakeName     string         `json:"component_name"`
		Type          string         `json:"type"`
		ComponentType string         `json:"component_type"`
		CamelType     string         `json:"componentType"`
		Props         map[string]any `json:"props"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = firstNonEmpty(raw.ComponentName, raw.Name, raw.SnakeName)
	c.Type = firstNonEmpty(raw.Type, raw.ComponentType, raw.CamelType)
	c.Props = raw.Props
	return nil
}

// ParseBlueprint decodes and validates a blueprint document.
func ParseBlueprint(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// PathFromName synthesizes a URL path from a page name. Home pages map to "/".
func PathFromName(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" || slug == "home" || slug == "index" {
		return "/"
	}
	return "/" + slug
}

// ComponentFileName turns a component name into a PascalCase identifier
// usable as both a file name and a JSX tag.
func ComponentFileName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				b.WriteRune(unicode.ToUpper(r))
				upper = false
			} else {
				b.WriteRune(r)
			}
		default:
			upper = true
		}
	}
	out := b.String()
	if out == "" {
		return "Component"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "C" + out
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
