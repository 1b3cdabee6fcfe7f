package prompt

import (
	"fmt"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/domain"
)

// SyntaxCritic asks for a syntax-only correction of a file.
func SyntaxCritic(code, name string) string {
	return fmt.Sprintf(`You are a senior TypeScript syntax validator. Your only job is to fix syntax errors, TypeScript issues and basic structural problems.

%s

File: %s
Return the corrected code only, inside a single `+"```tsx"+` code block. If nothing needs fixing, return the file unchanged.
---
FULL FILE CONTENT:
`+"```tsx"+`
%s
`+"```", SyntaxChecklist, name, code)
}

// AccessibilityChecklist lists the WCAG checks the accessibility critic applies.
const AccessibilityChecklist = `ACCESSIBILITY CHECKLIST (WCAG 2.1 AA):
1. Images: every <Image> and <img> has a meaningful alt, or alt="" when decorative
2. Landmarks: use header, nav, main, section and footer semantically
3. Headings: one h1 per page and no skipped heading levels
4. Controls: buttons and links have discernible text or aria-label
5. Forms: every input has an associated label
6. Keyboard: interactive elements are focusable and show a focus style
7. Contrast: text colours meet 4.5:1 against their background`

// AccessibilityCritic asks for an accessibility pass over a file.
func AccessibilityCritic(code, name string) string {
	return fmt.Sprintf(`You are an accessibility specialist reviewing a React component.

%s

Fix accessibility problems without changing behaviour or breaking syntax.
File: %s
Return the full corrected file only, inside a single `+"```tsx"+` code block.
---
`+"```tsx"+`
%s
`+"```", AccessibilityChecklist, name, code)
}

// PerformanceChecklist lists the checks the performance critic applies.
const PerformanceChecklist = `PERFORMANCE CHECKLIST:
1. Memoize expensive computations with useMemo and stable callbacks with useCallback
2. Effects declare complete dependency arrays and clean up listeners and timers
3. No state updates inside render
4. Lists rendered with map have stable keys
5. Images use next/image with explicit width and height
6. Event listeners added with addEventListener are removed on unmount`

// PerformanceCritic asks for a performance pass over an interactive file.
func PerformanceCritic(code, name string) string {
	return fmt.Sprintf(`You are a React performance engineer reviewing an interactive component.

%s

Fix performance problems without changing behaviour or breaking syntax.
File: %s
Return the full corrected file only, inside a single `+"```tsx"+` code block.
---
`+"```tsx"+`
%s
`+"```", PerformanceChecklist, name, code)
}

// Integration asks for a whole-site verdict over artifact previews.
func Integration(previews map[string]string, order []string, features []string) string {
	var b strings.Builder
	b.WriteString(`You are a lead engineer reviewing a generated Next.js site before it is built.
Check that the files fit together: imports resolve, props match, navigation is consistent and every declared feature is implemented.

Declared features: `)
	b.WriteString(quoteList(features))
	b.WriteString("\n\nFile previews:\n")
	for _, name := range order {
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n", name, previews[name])
	}
	b.WriteString(`
Respond with JSON only, using exactly this shape:
{"issues_found": ["string"], "fixes_required": [{"file": "string", "issue": "string", "fix": "string"}], "build_ready": true, "quality_score": 0}
quality_score is an integer from 0 to 100.`)
	return b.String()
}

// TargetedFix asks for a fix of one parsed build error.
func TargetedFix(code string, rec *domain.BuildErrorRecord) string {
	return fmt.Sprintf(`The project build failed with the following error. You must fix it.

ERROR TO FIX:
- File: %s
- Line: %s
- Column: %s
- Error message: %s

%s`, rec.FilePath, rec.Line, rec.Column, rec.ErrorMessage, SyntaxCritic(code, rec.FilePath))
}

// ModuleFix asks for an import-path-only fix of an unresolved module.
func ModuleFix(code string, rec *domain.BuildErrorRecord) string {
	return fmt.Sprintf(`The project build failed because an import could not be resolved.

File: %s
Error: %s

Fix ONLY the import paths in this file. Do not change anything else.
Exactly two import shapes are valid in this project:
1. Components are imported with the alias: import Name from '@/components/Name';
2. The stylesheet is imported only from app/layout.tsx as: import './globals.css';
Rewrite any other relative component import to the alias form.

Return the full corrected file only, inside a single `+"```tsx"+` code block.
---
`+"```tsx"+`
%s
`+"```", rec.FilePath, rec.ErrorMessage, code)
}
