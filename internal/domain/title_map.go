package domain

// TitleMap maps citation URLs to display titles, keeping first-insertion order.
// A later Set for an existing URL replaces the title but keeps its position.
type TitleMap struct {
	urls   []string
	titles map[string]string
}

// NewTitleMap builds a title map from a chunk's citations.
// Citations without a url are left out.
func NewTitleMap(citations []Citation) *TitleMap {
	m := &TitleMap{titles: make(map[string]string, len(citations))}
	for _, c := range citations {
		if c.URL == nil {
			continue
		}
		m.Set(*c.URL, c.DisplayTitle())
	}
	return m
}

// Set records the title for url
func (m *TitleMap) Set(url, title string) {
	if _, ok := m.titles[url]; !ok {
		m.urls = append(m.urls, url)
	}
	m.titles[url] = title
}

// Each calls fn for every (url, title) pair in insertion order
func (m *TitleMap) Each(fn func(url, title string)) {
	for _, u := range m.urls {
		fn(u, m.titles[u])
	}
}
