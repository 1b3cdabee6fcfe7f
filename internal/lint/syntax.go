package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// maxSyntaxIssues caps how many error nodes are reported per artifact.
const maxSyntaxIssues = 20

// SyntaxIssue is a parse error located in an artifact.
type SyntaxIssue struct {
	Line    int
	Column  int
	Missing bool
	Snippet string
}

func (i SyntaxIssue) String() string {
	kind := "syntax error"
	if i.Missing {
		kind = "missing token"
	}
	if i.Snippet == "" {
		return fmt.Sprintf("%d:%d %s", i.Line, i.Column, kind)
	}
	return fmt.Sprintf("%d:%d %s near %q", i.Line, i.Column, kind, i.Snippet)
}

// languageFor picks a grammar from the artifact name. Names without an
// extension are component names and parse as TSX. Stylesheets and data files
// return nil.
func languageFor(name string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".tsx", ".jsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".js", ".mjs", ".cjs":
		return javascript.GetLanguage()
	default:
		return nil
	}
}

// CheckSyntax parses code with tree-sitter and returns its error nodes.
// Artifacts in languages without a grammar return no issues.
func CheckSyntax(ctx context.Context, code, name string) ([]SyntaxIssue, error) {
	lang := languageFor(name)
	if lang == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	src := []byte(code)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	var issues []SyntaxIssue
	collectErrors(root, src, &issues)
	return issues, nil
}

func collectErrors(node *sitter.Node, src []byte, issues *[]SyntaxIssue) {
	if node == nil || len(*issues) >= maxSyntaxIssues {
		return
	}
	if node.IsError() || node.IsMissing() {
		start := node.StartPoint()
		snippet := strings.TrimSpace(node.Content(src))
		if len(snippet) > 40 {
			snippet = snippet[:40]
		}
		*issues = append(*issues, SyntaxIssue{
			Line:    int(start.Row) + 1,
			Column:  int(start.Column) + 1,
			Missing: node.IsMissing(),
			Snippet: snippet,
		})
		return
	}
	if !node.HasError() {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectErrors(node.Child(i), src, issues)
	}
}
