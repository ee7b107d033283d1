package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "numFound": 2,
  "docs": [
    {"key": "/works/OL45804W", "title": "Fantastic Mr Fox", "author_name": ["Roald Dahl"], "first_publish_year": 1970, "cover_i": 6498519},
    {"key": "/works/OL1W", "title": "Anonymous"}
  ]
}`

func TestSearchBySubject(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := NewClient("ebookstore-test", 100, 0, WithBaseURL(srv.URL))
	res, err := c.SearchBySubject(context.Background(), "fiction", 2)
	require.NoError(t, err)

	assert.Equal(t, "ebookstore-test", gotUA)
	assert.Equal(t, "subject:fiction", gotQuery)
	require.Len(t, res.Docs, 2)

	fox := res.Docs[0]
	assert.Equal(t, "ol45804w", fox.ID())
	assert.Equal(t, "Roald Dahl", fox.Author())
	assert.Equal(t, "https://covers.openlibrary.org/b/id/6498519-L.jpg", fox.CoverURL())

	anon := res.Docs[1]
	assert.Equal(t, "Unknown", anon.Author())
	assert.Empty(t, anon.CoverURL())
}

func TestSearchBySubject_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("ebookstore-test", 100, 3, WithBaseURL(srv.URL))
	_, err := c.SearchBySubject(context.Background(), "fiction", 1)
	assert.ErrorContains(t, err, "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchBySubject_ServerErrorIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := NewClient("ebookstore-test", 100, 1, WithBaseURL(srv.URL))
	res, err := c.SearchBySubject(context.Background(), "fiction", 2)
	require.NoError(t, err)
	assert.Len(t, res.Docs, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
