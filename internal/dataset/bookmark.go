package dataset

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 浏览器导出的根目录，统一归入常用推荐
var rootFolders = map[string]struct{}{
	"Bookmarks Bar":   {},
	"书签栏":             {},
	"Other Bookmarks": {},
	"其他书签":            {},
}

type bookmarkParser struct {
	now        time.Time
	links      []domain.Link
	categories []domain.Category
	byName     map[string]string
}

// ParseBookmarks 解析浏览器导出的 Netscape 书签 HTML
// 文件夹（DT > H3 + DL）映射为分类，只保留 http/https 链接
func ParseBookmarks(r io.Reader, now time.Time) (*domain.ImportResult, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse bookmark html")
	}

	p := &bookmarkParser{now: now, byName: make(map[string]string)}
	if dl := findFirst(root, atom.Dl); dl != nil {
		p.walk(dl, "")
	}
	return &domain.ImportResult{
		Links:      append([]domain.Link{}, p.links...),
		Categories: append([]domain.Category{}, p.categories...),
	}, nil
}

func (p *bookmarkParser) walk(dl *html.Node, folder string) {
	for dt := dl.FirstChild; dt != nil; dt = dt.NextSibling {
		if dt.Type != html.ElementNode || dt.DataAtom != atom.Dt {
			continue
		}

		var h3, a, sub *html.Node
		for c := dt.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.H3:
				if h3 == nil {
					h3 = c
				}
			case atom.A:
				if a == nil {
					a = c
				}
			case atom.Dl:
				if sub == nil {
					sub = c
				}
			}
		}

		switch {
		case h3 != nil && sub != nil:
			name := strings.TrimSpace(textContent(h3))
			if name == "" {
				name = "Unknown"
			}
			p.walk(sub, name)
		case a != nil:
			p.addLink(a, folder)
		}
	}
}

func (p *bookmarkParser) addLink(a *html.Node, folder string) {
	href := strings.TrimSpace(attr(a, "href"))
	if href == "" || !IsHTTPURL(href) {
		return
	}

	title := strings.TrimSpace(textContent(a))
	if title == "" {
		title = href
	}

	p.links = append(p.links, domain.Link{
		ID:         uuid.NewString(),
		Title:      title,
		URL:        href,
		Icon:       attr(a, "icon"),
		CategoryID: p.categoryID(folder),
		CreatedAt:  p.now.UnixMilli(),
	})
}

func (p *bookmarkParser) categoryID(name string) string {
	if name == "" {
		return domain.CommonCategoryID
	}
	if _, ok := rootFolders[name]; ok {
		return domain.CommonCategoryID
	}
	if id, ok := p.byName[name]; ok {
		return id
	}
	id := uuid.NewString()
	p.categories = append(p.categories, domain.Category{ID: id, Name: name, Icon: "Folder"})
	p.byName[name] = id
	return id
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, at := range n.Attr {
		if strings.EqualFold(at.Key, key) {
			return at.Val
		}
	}
	return ""
}
