package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/dailymemedigest/memefactory/pkg/masonry"
	"github.com/dailymemedigest/memefactory/pkg/store"
)

// galleryView is everything the gallery page shows.
type galleryView struct {
	Version string
	Geo     geometry
	Sort    string
	Offset  int
	Limit   int
	Total   int
	Layout  pageLayout
}

func (v galleryView) pageURL(offset int) string {
	q := url.Values{}
	q.Set("sort", v.Sort)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(v.Limit))
	q.Set("width", strconv.FormatFloat(v.Geo.Width, 'f', -1, 64))
	return "/?" + q.Encode()
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	geo, err := s.geometry(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	memes, err := s.deps.Store.List(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	total, err := s.deps.Store.Count(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	l, err := s.layout(ctx, memes, geo, func(item masonry.Item, _ int) string {
		var b strings.Builder
		if err := memeCard(item.Data.(store.Meme)).Render(ctx, &b); err != nil {
			s.logger.Warn("render card", "err", err)
		}
		return b.String()
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view := galleryView{
		Version: s.settings.Version,
		Geo:     geo,
		Sort:    opts.Sort,
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		Total:   total,
		Layout:  l,
	}
	if err := renderHTML(ctx, w, page("Daily Meme Digest", gallery(view))); err != nil {
		s.logger.Error("render gallery", "err", err)
	}
}

// renderHTML renders c to a buffer first so a failed render can still
// answer with an error status.
func renderHTML(ctx context.Context, w http.ResponseWriter, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
		return fmt.Errorf("render template: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	_, err := buf.WriteTo(w)
	return err
}

const styles = `
body { margin: 0; font-family: system-ui, sans-serif; background: #f8f9fa; color: #333; }
header { padding: 24px; text-align: center; background: linear-gradient(135deg, #667eea, #764ba2); color: #fff; }
header form { margin-top: 12px; }
header input { padding: 8px 12px; border-radius: 6px; border: 0; width: 260px; }
header button { padding: 8px 16px; border-radius: 6px; border: 0; background: #333; color: #fff; cursor: pointer; }
main { margin: 24px auto; }
.masonry { position: relative; }
.cell { position: absolute; box-sizing: border-box; }
.card { height: 100%; display: flex; flex-direction: column; background: #fff; border-radius: 8px; overflow: hidden; box-shadow: 0 1px 4px rgba(0,0,0,.12); }
.card img { width: 100%; flex: 1; object-fit: cover; min-height: 0; }
.card footer { display: flex; justify-content: space-between; align-items: center; padding: 6px 10px; font-size: 13px; }
.card a { color: #667eea; text-decoration: none; }
nav { display: flex; justify-content: center; gap: 16px; padding: 24px; }
`

const script = `
document.addEventListener("submit", async (e) => {
  if (!e.target.matches("[data-subscribe]")) return;
  e.preventDefault();
  const out = e.target.querySelector("output");
  const res = await fetch("/api/subscribe", {method: "POST", headers: {"Content-Type": "application/json"},
    body: JSON.stringify({email: e.target.email.value})});
  const body = await res.json();
  out.textContent = body.success ? body.message : body.error;
});
document.addEventListener("click", async (e) => {
  const btn = e.target.closest("[data-vote]");
  if (!btn) return;
  const res = await fetch("/api/memes/" + btn.dataset.id + "/vote", {method: "POST",
    headers: {"Content-Type": "application/json"}, body: JSON.stringify({direction: btn.dataset.vote})});
  const body = await res.json();
  if (body.success) btn.closest("footer").querySelector("[data-votes]").textContent = body.votes;
});
`

// page wraps body in the HTML document.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><style>%s</style></head><body>`,
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<script>%s</script></body></html>`, script)
		return err
	})
}

// gallery is the header, the laid-out cards and the pager.
func gallery(v galleryView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<header><h1>Daily Meme Digest</h1><p>AI news, served as memes.</p>`)
		b.WriteString(`<form data-subscribe><input type="email" name="email" placeholder="you@example.com" required> `)
		b.WriteString(`<button type="submit">Subscribe</button> <output></output></form></header>`)

		l := v.Layout
		fmt.Fprintf(&b, `<main style="width:%spx"><div class="masonry" style="height:%spx" data-columns="%d">`,
			px(l.ContainerWidth), px(l.Height), l.Columns)
		for _, c := range l.Cards {
			if !c.Placed {
				continue
			}
			fmt.Fprintf(&b, `<div class="cell" style="left:%spx;top:%spx;width:%spx;height:%spx">%s</div>`,
				px(c.Rect.X), px(c.Rect.Y), px(c.Rect.Width), px(c.Rect.Height), c.Markup)
		}
		if len(l.Cards) == 0 {
			b.WriteString(`<p style="text-align:center">No memes yet.</p>`)
		}
		b.WriteString(`</div></main><nav>`)
		if v.Offset > 0 {
			fmt.Fprintf(&b, `<a href="%s">Newer</a>`, templ.EscapeString(v.pageURL(max(v.Offset-v.Limit, 0))))
		}
		if v.Offset+len(l.Cards) < v.Total {
			fmt.Fprintf(&b, `<a href="%s">Older</a>`, templ.EscapeString(v.pageURL(v.Offset+v.Limit)))
		}
		fmt.Fprintf(&b, `<small>memefactory %s</small></nav>`, templ.EscapeString(v.Version))

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// memeCard is one meme's card markup.
func memeCard(m store.Meme) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		alt := m.NewsTitle
		if alt == "" {
			alt = m.Template
		}
		_, err := fmt.Fprintf(w, `<article class="card"><img src="%s" alt="%s" loading="lazy">`+
			`<footer><a href="%s" rel="noopener" target="_blank">%s</a>`+
			`<span><button data-vote="up" data-id="%s">&#9650;</button> <b data-votes>%d</b> `+
			`<button data-vote="down" data-id="%s">&#9660;</button></span></footer></article>`,
			templ.EscapeString(string(templ.URL(m.ImageURL))),
			templ.EscapeString(alt),
			templ.EscapeString(string(templ.URL(m.NewsURL))),
			templ.EscapeString(sourceLabel(m)),
			templ.EscapeString(m.ID), m.Votes,
			templ.EscapeString(m.ID))
		return err
	})
}

func sourceLabel(m store.Meme) string {
	if m.NewsSource != "" {
		return m.NewsSource
	}
	return "Source"
}

func px(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
