package knowledge

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkRunes is the target size of one knowledge chunk.
const DefaultChunkRunes = 1200

// Section is one chunk of a document before embedding.
type Section struct {
	Label   string
	Page    *int
	Content string
}

// Split breaks text into chunks of whole paragraphs up to maxRunes each.
// Markdown headings start a new chunk and label the chunks under them.
// Form feeds mark page breaks; without any, chunks carry no page.
func Split(text string, maxRunes int) []Section {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkRunes
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	paged := strings.Contains(text, "\f")

	var (
		out   []Section
		label string
		buf   []string
		size  int
		start = 1
	)
	page := 1

	flush := func() {
		if len(buf) == 0 {
			return
		}
		s := Section{Label: label, Content: strings.Join(buf, "\n\n")}
		if paged {
			p := start
			s.Page = &p
		}
		out = append(out, s)
		buf, size = nil, 0
	}

	for pi, pageText := range strings.Split(text, "\f") {
		if pi > 0 {
			page++
		}
		for _, para := range strings.Split(pageText, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			if heading, ok := headingText(para); ok {
				flush()
				label = heading
				continue
			}

			for _, piece := range splitLong(para, maxRunes) {
				n := utf8.RuneCountInString(piece)
				if size > 0 && size+n > maxRunes {
					flush()
				}
				if len(buf) == 0 {
					start = page
				}
				buf = append(buf, piece)
				size += n
			}
		}
	}
	flush()
	return out
}

// headingText reports whether para is a single markdown heading line.
func headingText(para string) (string, bool) {
	if !strings.HasPrefix(para, "#") || strings.Contains(para, "\n") {
		return "", false
	}
	h := strings.TrimSpace(strings.TrimLeft(para, "#"))
	return h, h != ""
}

// splitLong cuts a paragraph longer than maxRunes at word boundaries.
func splitLong(para string, maxRunes int) []string {
	if utf8.RuneCountInString(para) <= maxRunes {
		return []string{para}
	}
	var (
		out  []string
		cur  strings.Builder
		size int
	)
	for _, w := range strings.Fields(para) {
		n := utf8.RuneCountInString(w)
		if size > 0 && size+1+n > maxRunes {
			out = append(out, cur.String())
			cur.Reset()
			size = 0
		}
		if size > 0 {
			cur.WriteByte(' ')
			size++
		}
		cur.WriteString(w)
		size += n
	}
	if size > 0 {
		out = append(out, cur.String())
	}
	return out
}

// Title returns the first top-level markdown heading of content, else a
// title derived from the file name.
func Title(filename, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			if t := strings.TrimSpace(line[2:]); t != "" {
				return t
			}
		}
	}
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(base))
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

// DocumentType classifies a document as sop, manual, policy or report from
// its file name, then its content. Unrecognized documents are sop.
func DocumentType(filename, content string) string {
	name := strings.ToLower(filepath.Base(filename))
	body := strings.ToLower(content)

	for _, t := range []struct {
		kind     string
		keywords []string
	}{
		{"policy", []string{"policy", "policies", "code of conduct"}},
		{"manual", []string{"manual", "handbook", "guide"}},
		{"report", []string{"report", "audit", "review"}},
		{"sop", []string{"sop", "procedure"}},
	} {
		for _, k := range t.keywords {
			if strings.Contains(name, k) {
				return t.kind
			}
		}
	}

	switch {
	case strings.Contains(body, "standard operating procedure"):
		return "sop"
	case strings.Contains(body, "this policy"):
		return "policy"
	case strings.Contains(body, "audit findings"), strings.Contains(body, "executive summary"):
		return "report"
	case strings.Contains(body, "operator manual"), strings.Contains(body, "machine manual"):
		return "manual"
	}
	return "sop"
}
