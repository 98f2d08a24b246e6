package news

// MaxPreview is the most articles a preview lists.
const MaxPreview = 10

const previewDescriptionLen = 500

// PreviewItem is an article as the news preview shows it.
type PreviewItem struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	Published   string `json:"published"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Preview formats the first n articles (at most [MaxPreview]). Non-empty
// descriptions are cut to 500 characters and always end in "...".
func Preview(articles []Article, n int) []PreviewItem {
	n = min(max(n, 0), MaxPreview, len(articles))
	out := make([]PreviewItem, 0, n)
	for _, a := range articles[:n] {
		desc := a.Description
		if desc != "" {
			if r := []rune(desc); len(r) > previewDescriptionLen {
				desc = string(r[:previewDescriptionLen])
			}
			desc += "..."
		}
		out = append(out, PreviewItem{
			Title:       a.Title,
			Source:      a.SourceName(),
			Published:   a.PublishedAt,
			URL:         a.URL,
			Description: desc,
		})
	}
	return out
}
