// Package lint applies deterministic, idempotent source repairs to generated
// Next.js artifacts and checks them for syntax errors.
package lint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/jsx"
)

// rule is one rewrite. apply returns the new code and a fix description, or
// an empty description when the trigger did not match.
type rule struct {
	name  string
	apply func(code string) (string, string)
}

// Linter runs the rewrite rules in a fixed order.
type Linter struct {
	rules []rule
}

// New returns a Linter with the standard rule set:
//
//  1. link-import: add the next/link import when <Link> is used
//  2. internal-anchors: turn <a href="/..."> into <Link href="/...">
//  3. optimized-images: turn <img> into next/image <Image> with default size and alt
//  4. client-directive: prepend 'use client' when React hooks are referenced
func New() *Linter {
	return &Linter{rules: []rule{
		{"link-import", ensureLinkImport},
		{"internal-anchors", normalizeInternalAnchors},
		{"optimized-images", optimizeImages},
		{"client-directive", ensureClientDirective},
	}}
}

// Apply runs every rule over code and returns the result with a description
// of each fix applied. Rules whose trigger does not match leave code untouched.
func (l *Linter) Apply(code, name string) (string, []string) {
	var fixes []string
	for _, r := range l.rules {
		updated, fix := r.apply(code)
		if fix == "" {
			continue
		}
		code = updated
		fixes = append(fixes, fmt.Sprintf("%s: %s", name, fix))
	}
	return code, fixes
}

// RuleNames lists the rules in application order.
func (l *Linter) RuleNames() []string {
	names := make([]string, len(l.rules))
	for i, r := range l.rules {
		names[i] = r.name
	}
	return names
}

const (
	linkImport      = "import Link from 'next/link';"
	imageImport     = "import Image from 'next/image';"
	clientDirective = "'use client';"
)

var (
	linkUsage     = regexp.MustCompile(`<Link[\s>/]`)
	linkImported  = regexp.MustCompile(`import\s+Link\s+from\s+['"]next/link['"]`)
	imageImported = regexp.MustCompile(`import\s+Image\s+from\s+['"]next/image['"]`)
	internalHref  = regexp.MustCompile(`\bhref=(?:"(/[^"]*)"|'(/[^']*)')`)
	hookUsage     = regexp.MustCompile(`\buse(State|Effect|Ref|Callback|Memo|Context|Reducer|LayoutEffect|Transition)\b`)
	directiveLine = regexp.MustCompile(`^\s*['"]use client['"];?[ \t]*\r?\n?`)
	widthAttr     = regexp.MustCompile(`\bwidth=`)
	heightAttr    = regexp.MustCompile(`\bheight=`)
	altAttr       = regexp.MustCompile(`\balt=`)
	fillAttr      = regexp.MustCompile(`\bfill\b`)
)

func ensureLinkImport(code string) (string, string) {
	if !linkUsage.MatchString(code) || linkImported.MatchString(code) {
		return code, ""
	}
	return insertImport(code, linkImport), "added missing next/link import"
}

func normalizeInternalAnchors(code string) (string, string) {
	var b strings.Builder
	count, last := 0, 0
	for _, el := range jsx.Elements(code, "a") {
		if el.CloseStart < 0 {
			continue
		}
		loc := internalHref.FindStringSubmatchIndex(el.Open.Attrs)
		if loc == nil {
			continue
		}
		attrs := el.Open.Attrs
		href := submatch(attrs, loc, 1)
		if href == "" {
			href = submatch(attrs, loc, 2)
		}
		if strings.HasPrefix(href, "//") {
			continue
		}
		attrs = attrs[:loc[0]] + `href="` + href + `"` + attrs[loc[1]:]
		b.WriteString(code[last:el.Start])
		fmt.Fprintf(&b, "<Link %s>%s</Link>", attrs, el.Children(code))
		last = el.End
		count++
	}
	if count == 0 {
		return code, ""
	}
	b.WriteString(code[last:])
	out := b.String()
	if !linkImported.MatchString(out) {
		out = insertImport(out, linkImport)
	}
	return out, fmt.Sprintf("converted %d internal <a> link(s) to <Link>", count)
}

func optimizeImages(code string) (string, string) {
	tags := jsx.Tags(code, "img")
	if len(tags) == 0 || imageImported.MatchString(code) {
		return code, ""
	}
	var b strings.Builder
	last := 0
	for _, t := range tags {
		attrs := t.Attrs
		if !fillAttr.MatchString(attrs) {
			if !widthAttr.MatchString(attrs) {
				attrs += " width={800}"
			}
			if !heightAttr.MatchString(attrs) {
				attrs += " height={600}"
			}
		}
		if !altAttr.MatchString(attrs) {
			attrs += ` alt=""`
		}
		b.WriteString(code[last:t.Start])
		b.WriteString("<Image " + strings.TrimSpace(attrs) + " />")
		last = t.End
	}
	b.WriteString(code[last:])
	return insertImport(b.String(), imageImport), fmt.Sprintf("replaced %d <img> tag(s) with next/image", len(tags))
}

func ensureClientDirective(code string) (string, string) {
	if !hookUsage.MatchString(code) || directiveLine.MatchString(code) {
		return code, ""
	}
	return clientDirective + "\n\n" + code, "added 'use client' directive for React hooks"
}

// insertImport adds stmt at the top of code, after a leading 'use client'
// directive when one is present.
func insertImport(code, stmt string) string {
	if loc := directiveLine.FindStringIndex(code); loc != nil {
		head := strings.TrimRight(code[:loc[1]], "\r\n")
		return head + "\n" + stmt + "\n" + code[loc[1]:]
	}
	return stmt + "\n" + code
}

// submatch returns capture group n of a FindStringSubmatchIndex result, or
// "" when the group did not participate.
func submatch(s string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}
