package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netscapeSample = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>书签栏</H3>
    <DL><p>
        <DT><A HREF="https://github.com" ICON="data:image/png;base64,AAA">GitHub</A>
        <DT><H3>Go</H3>
        <DL><p>
            <DT><A HREF="https://go.dev">Go</A>
            <DT><A HREF="https://pkg.go.dev"></A>
            <DT><A HREF="javascript:void(0)">bad</A>
        </DL><p>
        <DT><H3>Go</H3>
        <DL><p>
            <DT><A HREF="https://gobyexample.com">Go by Example</A>
        </DL><p>
    </DL><p>
    <DT><A HREF="http://root.example">Root</A>
</DL><p>`

func TestParseBookmarks(t *testing.T) {
	res, err := ParseBookmarks(strings.NewReader(netscapeSample), time.UnixMilli(7))
	require.NoError(t, err)

	require.Len(t, res.Categories, 1)
	goCat := res.Categories[0]
	assert.Equal(t, "Go", goCat.Name)
	assert.Equal(t, "Folder", goCat.Icon)

	require.Len(t, res.Links, 5)
	byURL := map[string]domain.Link{}
	for _, l := range res.Links {
		byURL[l.URL] = l
		assert.Equal(t, int64(7), l.CreatedAt)
		assert.NotEmpty(t, l.ID)
	}

	assert.Equal(t, domain.CommonCategoryID, byURL["https://github.com"].CategoryID)
	assert.Equal(t, "data:image/png;base64,AAA", byURL["https://github.com"].Icon)
	assert.Equal(t, goCat.ID, byURL["https://go.dev"].CategoryID)
	assert.Equal(t, "https://pkg.go.dev", byURL["https://pkg.go.dev"].Title)
	assert.Equal(t, goCat.ID, byURL["https://gobyexample.com"].CategoryID)
	assert.Equal(t, domain.CommonCategoryID, byURL["http://root.example"].CategoryID)
	_, hasBad := byURL["javascript:void(0)"]
	assert.False(t, hasBad)
}

func TestParseBookmarksNoList(t *testing.T) {
	res, err := ParseBookmarks(strings.NewReader("<html><body>nothing</body></html>"), time.Now())
	require.NoError(t, err)
	assert.Empty(t, res.Links)
	assert.Empty(t, res.Categories)
}
