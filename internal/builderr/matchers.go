package builderr

import (
	"regexp"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/domain"
)

// sourcePath matches a project-relative source path such as
// ./components/Footer.tsx or app/[...slug]/page.tsx.
const sourcePath = `((?:\.{1,2}/)?[\w@\-\[\]().]+(?:/[\w@\-\[\]().]+)*\.(?:tsx|ts|jsx|js|mjs|cjs|css))`

// warnMarker matches the optional ⚠ prefix Next.js puts on lint lines.
const warnMarker = `(?:\x{26A0}\x{FE0F}?[ \t]*)?`

var (
	missingModuleRe = regexp.MustCompile(`(?:Module not found: (?:Error: )?Can't resolve|Cannot find module) '([^']+)'[^\n]*`)
	pathLineRe      = regexp.MustCompile(`^[ \t]*` + warnMarker + sourcePath + `(?::(\d+)(?::(\d+))?)?[ \t]*$`)
	adjacentRe      = regexp.MustCompile(`(?m)^[ \t]*` + warnMarker + sourcePath + `[ \t]*\n[ \t]*` + warnMarker + `(\d+):(\d+)[ \t]+(?:Type error|(?i:error)):?[ \t]+(.+)$`)
	errorInPathRe   = regexp.MustCompile(`(?m)^[ \t]*(?:\x{2A2F}[ \t]*)?Error:[ \t]*(.+?)[ \t]+in[ \t]+` + sourcePath + `(?::(\d+)(?::(\d+))?)?[ \t]*$`)
	bannerRe        = regexp.MustCompile(`Failed to compile\.?`)
	bareErrorRe     = regexp.MustCompile(`^(?:Error:|x)\s*`)
)

// ModuleNotFound handles unresolved imports, e.g.
//
//	Failed to compile.
//
//	./components/Footer.tsx:3:1
//	Module not found: Can't resolve '../layout/Footer'
//
// → file ./components/Footer.tsx, line 3, column 1, type ModuleNotFound.
// The file is the nearest path line above the message.
var ModuleNotFound Matcher = matcherFunc{name: "module-not-found", fn: matchModuleNotFound}

// AdjacentLines handles lint output with the path and the error on
// consecutive lines, e.g.
//
//	⚠️  ./components/Footer.tsx
//	⚠️  48:23  Error: Component definition is missing display name  react/display-name
//
// → file ./components/Footer.tsx, line 48, column 23.
var AdjacentLines Matcher = matcherFunc{name: "adjacent-lines", fn: matchAdjacentLines}

// ErrorInPath handles single-line errors naming the file at the end, e.g.
//
//	Error: Unexpected token `div`. Expected jsx identifier in ./app/page.tsx:14:9
//
// → file ./app/page.tsx, line 14, column 9.
var ErrorInPath Matcher = matcherFunc{name: "error-in-path", fn: matchErrorInPath}

// FrameworkBanner handles the Next.js "Failed to compile." banner followed by
// a location line and a message, e.g.
//
//	Failed to compile.
//
//	./app/layout.tsx:5:1
//	Type error: Cannot find name 'Inter'.
//
// → file ./app/layout.tsx, line 5, column 1.
var FrameworkBanner Matcher = matcherFunc{name: "framework-banner", fn: matchFrameworkBanner}

// maxLookback bounds how far above a module-not-found message the path line may be.
const maxLookback = 6

func matchModuleNotFound(output string) *domain.BuildErrorRecord {
	loc := missingModuleRe.FindStringSubmatchIndex(output)
	if loc == nil {
		return nil
	}
	message := output[loc[0]:loc[1]]
	module := output[loc[2]:loc[3]]

	lines := strings.Split(output[:loc[0]], "\n")
	// The last element is the fragment sharing the message's line.
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-1-maxLookback; i-- {
		m := pathLineRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		return &domain.BuildErrorRecord{
			FilePath:      m[1],
			Line:          m[2],
			Column:        m[3],
			ErrorMessage:  message,
			ErrorType:     domain.ErrorKindModuleNotFound,
			MissingModule: module,
		}
	}
	return nil
}

func matchAdjacentLines(output string) *domain.BuildErrorRecord {
	m := adjacentRe.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	return &domain.BuildErrorRecord{
		FilePath:     m[1],
		Line:         m[2],
		Column:       m[3],
		ErrorMessage: m[4],
		ErrorType:    domain.ErrorKindGeneric,
	}
}

func matchErrorInPath(output string) *domain.BuildErrorRecord {
	m := errorInPathRe.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	return &domain.BuildErrorRecord{
		FilePath:     m[2],
		Line:         m[3],
		Column:       m[4],
		ErrorMessage: m[1],
		ErrorType:    domain.ErrorKindGeneric,
	}
}

func matchFrameworkBanner(output string) *domain.BuildErrorRecord {
	loc := bannerRe.FindStringIndex(output)
	if loc == nil {
		return nil
	}
	lines := strings.Split(output[loc[1]:], "\n")
	for i, line := range lines {
		m := pathLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		message := ""
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" {
				continue
			}
			if stripped := bareErrorRe.ReplaceAllString(next, ""); stripped == "" {
				continue
			}
			message = next
			break
		}
		if message == "" {
			return nil
		}
		return &domain.BuildErrorRecord{
			FilePath:     m[1],
			Line:         m[2],
			Column:       m[3],
			ErrorMessage: message,
			ErrorType:    domain.ErrorKindOther,
		}
	}
	return nil
}
