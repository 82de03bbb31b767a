package pdf

import (
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))

// writer lays out headings and Markdown blocks on a document.
type writer struct {
	doc    *fpdf.Fpdf
	tr     func(string) string
	source []byte
	bold   bool
	italic bool
	depth  int
}

func (w *writer) heading(title string) {
	w.doc.Ln(4)
	w.doc.SetFont(fontFamily, "B", 13)
	w.doc.MultiCell(0, 7, w.tr(title), "", "L", false)
	w.doc.SetFont(fontFamily, "", bodySize)
	w.doc.Ln(1)
}

func (w *writer) paragraph(s string) {
	w.doc.MultiCell(0, lineHeight, w.tr(s), "", "L", false)
}

// markdown renders s. Blank input renders nothing.
func (w *writer) markdown(s string) {
	s = strings.TrimSpace(stripFence(s))
	if s == "" {
		return
	}
	w.source = []byte(s)
	w.bold, w.italic, w.depth = false, false, 0
	doc := md.Parser().Parse(text.NewReader(w.source))
	_ = ast.Walk(doc, w.walk)
	w.doc.SetFont(fontFamily, "", bodySize)
}

func (w *writer) font() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.doc.SetFont(fontFamily, style, bodySize)
}

func (w *writer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.doc.Ln(2)
			w.bold = true
		} else {
			w.bold = false
			w.doc.Ln(lineHeight + 1)
		}
		w.font()
	case *ast.Paragraph:
		if !entering {
			w.doc.Ln(lineHeight + 1)
		}
	case *ast.List:
		if entering {
			w.depth++
		} else {
			w.depth--
			if w.depth == 0 {
				w.doc.Ln(2)
			}
		}
	case *ast.ListItem:
		if entering {
			left, _, _, _ := w.doc.GetMargins()
			w.doc.SetX(left + float64(w.depth)*4)
			w.doc.Write(lineHeight, w.tr("• "))
		} else if _, loose := node.LastChild().(*ast.Paragraph); !loose {
			w.doc.Ln(lineHeight)
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.font()
	case *ast.CodeSpan:
		if entering {
			w.doc.SetFont("Courier", "", bodySize)
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					w.doc.Write(lineHeight, w.tr(string(t.Segment.Value(w.source))))
				}
			}
			w.font()
			return ast.WalkSkipChildren, nil
		}
	case *ast.Text:
		if entering {
			w.doc.Write(lineHeight, w.tr(string(node.Segment.Value(w.source))))
			switch {
			case node.HardLineBreak():
				w.doc.Ln(lineHeight)
			case node.SoftLineBreak():
				w.doc.Write(lineHeight, " ")
			}
		}
	case *ast.String:
		if entering {
			w.doc.Write(lineHeight, w.tr(string(node.Value)))
		}
	case *ast.AutoLink:
		if entering {
			w.doc.Write(lineHeight, w.tr(string(node.URL(w.source))))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

// stripFence removes an outer ``` fence that models often wrap output in.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		return t[i+1:]
	}
	return ""
}
