// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders post bodies to HTML with goldmark. Posts are
// authored in GitHub-Flavored Markdown; raw HTML written into a post
// passes through unchanged, so imported content keeps rendering.
package markdown

import (
	"bytes"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// converter is the shared goldmark instance. Configuration is fixed at
// startup; Convert itself is safe for concurrent use.
var converter = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks, task lists
		extension.Footnote,    // [^1]-style footnotes
		extension.Typographer, // smart quotes and dashes
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithParserOptions(
		// Heading IDs give every section a stable anchor for sharing.
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		// Posts may embed raw HTML; authors are trusted, readers are not,
		// and readers never write post bodies.
		html.WithUnsafe(),
	),
)

// ToHTML renders Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
