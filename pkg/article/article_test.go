package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchExtractsTextWithoutRuby(t *testing.T) {
	page, err := os.ReadFile("testdata/news.html")
	require.NoError(t, err)

	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	art, err := NewFetcher(nil).Fetch(context.Background(), srv.URL+"/snow")
	require.NoError(t, err)
	assert.Contains(t, ua, "Mozilla/5.0")
	assert.Equal(t, srv.URL+"/snow", art.URL)
	assert.Equal(t, "北京今天下雪了", art.Title)
	assert.Contains(t, art.Text, "第一场雪")
	assert.Contains(t, art.Text, "故宫附近")
	assert.NotContains(t, art.Text, "gùgōng")
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			_, _ = w.Write([]byte(strings.Repeat("a", MaxBodySize+10)))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), srv.URL+"/blocked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")

	_, err = f.Fetch(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromFile(t *testing.T) {
	art, err := FromFile("testdata/lesson.yaml")
	require.NoError(t, err)
	assert.Equal(t, "第一课", art.Title)
	assert.Equal(t, "我叫小明，我是学生。\n我每天早上七点起床。", art.Text)
	assert.True(t, strings.HasPrefix(art.URL, "file://"))
	assert.True(t, strings.HasSuffix(art.URL, "/testdata/lesson.yaml"))

	art, err = FromFile("testdata/plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain", art.Title)
	assert.Equal(t, "我们明天去公园吧。", art.Text)

	art, err = NewFetcher(nil).Load(context.Background(), "testdata/news.html")
	require.NoError(t, err)
	assert.Contains(t, art.Text, "高速公路")

	_, err = FromFile("testdata/missing.yaml")
	assert.Error(t, err)
}
