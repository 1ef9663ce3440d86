package application

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	xhtml "golang.org/x/net/html"
)

const (
	maxExcerptLength = 200

	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

type relativeLinkTransformer struct {
	domain string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.Link:
			dest := string(n.Destination)
			if isRelativeLink(dest) {
				// Strip .md and .html extensions; posts are addressed by slug
				slug := path.Base(dest)
				slug = strings.TrimSuffix(slug, ".md")
				slug = strings.TrimSuffix(slug, ".html")
				n.Destination = []byte(t.domain + "/post/" + slug)
			}
		case *ast.Image:
			dest := string(n.Destination)
			if isRelativeLink(dest) {
				n.Destination = []byte(t.domain + "/" + strings.TrimLeft(path.Clean("/"+dest), "/"))
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}

	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

// ContentRenderer turns submitted post content into the HTML that is stored.
type ContentRenderer interface {
	// Render converts content in the given format to HTML. HTML passes through.
	Render(content, format string) (string, error)
}

type MarkdownRenderer struct {
	renderer goldmark.Markdown
}

var _ ContentRenderer = (*MarkdownRenderer)(nil)

// NewMarkdownRenderer rewrites relative links against publicURL.
func NewMarkdownRenderer(publicURL string) *MarkdownRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{domain: strings.TrimSuffix(publicURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &MarkdownRenderer{
		renderer: renderer,
	}
}

func (r *MarkdownRenderer) Render(content, format string) (string, error) {
	switch format {
	case "", FormatHTML:
		return content, nil
	case FormatMarkdown:
	default:
		return "", fmt.Errorf("unsupported content format %q", format)
	}

	var buf bytes.Buffer
	if err := r.renderer.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

// Excerpt returns the visible text of an HTML fragment, cut on a word
// boundary near 200 characters.
func Excerpt(content string) string {
	tokenizer := xhtml.NewTokenizer(strings.NewReader(content))

	var (
		b    strings.Builder
		skip int
	)
	for {
		switch tokenizer.Next() {
		case xhtml.ErrorToken:
			if tokenizer.Err() != io.EOF {
				return ""
			}
			return truncate(collapseSpace(b.String()))
		case xhtml.StartTagToken:
			if isHiddenTag(tokenizer) {
				skip++
			} else {
				b.WriteByte(' ')
			}
		case xhtml.EndTagToken:
			if isHiddenTag(tokenizer) && skip > 0 {
				skip--
			} else {
				b.WriteByte(' ')
			}
		case xhtml.SelfClosingTagToken:
			b.WriteByte(' ')
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func isHiddenTag(z *xhtml.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "template", "noscript":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptLength {
		return s
	}

	cut := string(runes[:maxExcerptLength])
	if lastSpace := strings.LastIndexAny(cut, " \t"); lastSpace > 0 {
		cut = cut[:lastSpace]
	}
	return strings.TrimRight(cut, " ,;:.") + "..."
}
