// Package imports replaces references to components that were never
// generated with the shared Placeholder component.
package imports

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/jsx"
)

// PlaceholderName is the component rendered in place of a missing one. It is
// always considered available.
const PlaceholderName = "Placeholder"

// PlaceholderImport is the import statement the resolver inserts.
const PlaceholderImport = "import Placeholder from '@/components/Placeholder';"

var (
	componentImport   = regexp.MustCompile(`(?m)^[ \t]*import\s+(\w+)\s+from\s+['"]@/components/([\w/-]+)['"];?[ \t]*\r?\n?`)
	placeholderImport = regexp.MustCompile(`import\s+Placeholder\s+from\s+['"]@/components/Placeholder['"]`)
	directiveLine     = regexp.MustCompile(`^\s*['"]use client['"];?[ \t]*\r?\n?`)
)

// Resolve rewrites code so every component imported from @/components that
// is not in available renders as <Placeholder componentName="..." />. The
// import of each missing component is dropped and a single Placeholder
// import is ensured. The transformation is idempotent.
//
// Entries in available may carry a file extension ("Header.tsx").
func Resolve(code string, available []string, name string) (string, []string) {
	allowed := map[string]bool{PlaceholderName: true}
	for _, a := range available {
		allowed[strings.TrimSuffix(strings.TrimSuffix(a, ".tsx"), ".jsx")] = true
	}

	var missing []string
	seen := map[string]bool{}
	code = componentImport.ReplaceAllStringFunc(code, func(stmt string) string {
		m := componentImport.FindStringSubmatch(stmt)
		local, target := m[1], m[2]
		if allowed[target] {
			return stmt
		}
		if !seen[local] {
			seen[local] = true
			missing = append(missing, local)
		}
		return ""
	})
	if len(missing) == 0 {
		return code, nil
	}

	var fixes []string
	for _, local := range missing {
		var n int
		code, n = replaceUsages(code, local)
		fixes = append(fixes, fmt.Sprintf("%s: replaced missing component %s with Placeholder (%d usage(s))", name, local, n))
	}
	if !placeholderImport.MatchString(code) {
		code = insertImport(code, PlaceholderImport)
	}
	return code, fixes
}

// replaceUsages swaps every element of component, paired or self-closing,
// for the placeholder and returns the number of replacements.
func replaceUsages(code, component string) (string, int) {
	elements := jsx.Elements(code, component)
	if len(elements) == 0 {
		return code, 0
	}
	var b strings.Builder
	last := 0
	for _, el := range elements {
		b.WriteString(code[last:el.Start])
		fmt.Fprintf(&b, `<Placeholder componentName="%s" />`, component)
		last = el.End
	}
	b.WriteString(code[last:])
	return b.String(), len(elements)
}

func insertImport(code, stmt string) string {
	if loc := directiveLine.FindStringIndex(code); loc != nil {
		head := strings.TrimRight(code[:loc[1]], "\r\n")
		return head + "\n" + stmt + "\n" + code[loc[1]:]
	}
	return stmt + "\n" + code
}
