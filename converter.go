package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	imagePlaceholderFormat = "{{clip-image-%d}}"
	imageIndexAttr         = "data-clip-image"
)

var placeholderPattern = regexp.MustCompile(`\{\{clip-image-(\d+)\}\}`)

// imagePlaceholder returns the body marker for the image at index
func imagePlaceholder(index int) string {
	return fmt.Sprintf(imagePlaceholderFormat, index)
}

// Converter turns a classified clipboard payload into Markdown
type Converter struct {
	logger *slog.Logger
}

// NewConverter creates a converter
func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{logger: logger}
}

// Convert dispatches on the payload variant. baseURL is the page the
// content came from and may be empty.
func (c *Converter) Convert(payload ClipPayload, baseURL string) ConvertedContent {
	switch p := payload.(type) {
	case HTMLPayload:
		return c.convertHTML(p.HTML, baseURL)
	case TextPayload:
		return c.convertText(p.Text)
	case ImagePayload:
		return c.convertImage(p)
	default:
		return ConvertedContent{}
	}
}

// imageCollector records <img> sources in the order the converter first
// meets them. The converter may render a node more than once, so the index
// is stored on the node itself.
type imageCollector struct {
	sources []string
	alts    []string
}

func (ic *imageCollector) rule(resolve func(string) string) md.Rule {
	return md.Rule{
		Filter: []string{"img"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if attr, ok := selec.Attr(imageIndexAttr); ok {
				index, _ := strconv.Atoi(attr)
				return md.String(imagePlaceholder(index))
			}

			src := strings.TrimSpace(selec.AttrOr("src", ""))
			if src == "" {
				src = firstSrcsetCandidate(selec.AttrOr("srcset", ""))
			}
			if src == "" {
				return md.String("")
			}

			index := len(ic.sources)
			ic.sources = append(ic.sources, resolve(src))
			ic.alts = append(ic.alts, strings.Join(strings.Fields(selec.AttrOr("alt", "")), " "))
			selec.SetAttr(imageIndexAttr, strconv.Itoa(index))

			return md.String(imagePlaceholder(index))
		},
	}
}

func (c *Converter) convertHTML(raw, baseURL string) ConvertedContent {
	raw = repairText(raw)
	if !strings.ContainsRune(raw, '<') || !strings.ContainsRune(raw, '>') {
		return c.convertText(raw)
	}

	base := parseBaseURL(baseURL)
	resolve := func(ref string) string { return resolveReference(base, ref) }

	domain := ""
	if base != nil {
		domain = base.Host
	}

	conv := md.NewConverter(domain, true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		GetAbsoluteURL: func(_ *goquery.Selection, rawURL string, _ string) string {
			return resolve(rawURL)
		},
	})

	collector := &imageCollector{}
	conv.AddRules(collector.rule(resolve))

	markdown, err := conv.ConvertString(raw)
	if err != nil {
		c.logger.Warn("html conversion failed, keeping plain text", "error", err)
		return c.convertText(raw)
	}
	if strings.TrimSpace(markdown) == "" && len(collector.sources) == 0 {
		c.logger.Debug("html produced no markdown, keeping plain text")
		return c.convertText(raw)
	}

	body, refs := renumberPlaceholders(markdown, collector)
	return ConvertedContent{Markdown: body, ImageRefs: refs}
}

// renumberPlaceholders relabels placeholders in output order so indices run
// 0..N-1 with no gaps. Images that never reached the output (hidden in a
// dropped element) get no ref; repeated markers keep only the first.
func renumberPlaceholders(markdown string, collector *imageCollector) (string, []RemoteImageRef) {
	var refs []RemoteImageRef
	seen := make(map[int]bool)

	body := placeholderPattern.ReplaceAllStringFunc(markdown, func(match string) string {
		index, err := strconv.Atoi(placeholderPattern.FindStringSubmatch(match)[1])
		if err != nil || index >= len(collector.sources) || seen[index] {
			return ""
		}
		seen[index] = true

		placeholder := imagePlaceholder(len(refs))
		refs = append(refs, RemoteImageRef{
			SourceURL:   collector.sources[index],
			Alt:         collector.alts[index],
			Placeholder: placeholder,
		})
		return placeholder
	})

	for i := range refs {
		refs[i].Offset = strings.Index(body, refs[i].Placeholder)
	}
	return body, refs
}

func (c *Converter) convertText(text string) ConvertedContent {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return ConvertedContent{Markdown: repairText(text)}
}

func (c *Converter) convertImage(img ImagePayload) ConvertedContent {
	normalized, err := normalizeClipboardImage(img)
	if err != nil {
		c.logger.Warn("keeping clipboard image as copied", "format", img.Format, "error", err)
		normalized = img
	}
	return ConvertedContent{LocalImage: &normalized}
}

// repairText replaces ill-formed UTF-8 with U+FFFD
func repairText(s string) string {
	repaired, _, err := transform.String(runes.ReplaceIllFormed(), s)
	if err != nil {
		return strings.ToValidUTF8(s, "�")
	}
	return repaired
}

func parseBaseURL(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// resolveReference makes ref absolute against base. Without a base only
// protocol-relative references can be completed.
func resolveReference(base *url.URL, ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base != nil {
		return base.ResolveReference(u).String()
	}
	if u.Scheme == "" && u.Host != "" {
		u.Scheme = "https"
		return u.String()
	}
	return ref
}

func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
