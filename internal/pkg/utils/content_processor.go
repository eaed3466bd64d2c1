package utils

import (
	"regexp"
	"strings"
)

type tagStyle struct {
	pattern     string
	replacement string
}

// tagStyles maps stored HTML tags to the daisyUI classes the content pages
// expect. Ordered so nested tags (pre before code) style deterministically.
var tagStyles = []tagStyle{
	{`<h1([^>]*)>`, `<h1$1 class="text-4xl font-bold mb-4 mt-6">`},
	{`<h2([^>]*)>`, `<h2$1 class="text-3xl font-bold mb-3 mt-5">`},
	{`<h3([^>]*)>`, `<h3$1 class="text-2xl font-bold mb-2 mt-4">`},
	{`<h4([^>]*)>`, `<h4$1 class="text-xl font-bold mb-2 mt-3">`},
	{`<p([^>]*)>`, `<p$1 class="mb-4 text-base-content leading-relaxed">`},
	{`<ul([^>]*)>`, `<ul$1 class="list-disc list-inside mb-4 ml-4 space-y-2">`},
	{`<ol([^>]*)>`, `<ol$1 class="list-decimal list-inside mb-4 ml-4 space-y-2">`},
	{`<li([^>]*)>`, `<li$1 class="text-base-content">`},
	{`<blockquote([^>]*)>`, `<blockquote$1 class="border-l-4 border-primary pl-4 italic mb-4 text-base-content/80">`},
	{`<table([^>]*)>`, `<table$1 class="table table-bordered w-full mb-4">`},
	// tutorial and snippet bodies are code-heavy, pre/code get the most use
	{`<pre([^>]*)>`, `<pre$1 class="bg-base-200 p-4 rounded-lg mb-4 overflow-x-auto">`},
	{`<code([^>]*)>`, `<code$1 class="bg-base-200 px-2 py-1 rounded text-sm font-mono">`},
	{`<a([^>]*)>`, `<a$1 class="link link-primary">`},
	{`<strong([^>]*)>`, `<strong$1 class="font-bold">`},
	{`<em([^>]*)>`, `<em$1 class="italic">`},
}

// ProcessHTMLContent decorates stored content/page HTML with the site's
// styling classes. Elements that already carry a class attribute are left
// untouched so authors can override individual blocks.
func ProcessHTMLContent(body string) string {
	out := body
	for _, ts := range tagStyles {
		re := regexp.MustCompile(ts.pattern)
		for _, match := range re.FindAllStringSubmatch(out, -1) {
			if len(match) > 1 && !strings.Contains(match[1], "class=") {
				out = strings.Replace(out, match[0], ts.replacement, 1)
			}
		}
	}
	return out
}
