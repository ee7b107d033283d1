package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOwners map[string]Ownership

func (s stubOwners) Ownership(r *http.Request, bookID string) (Ownership, bool) {
	o, ok := s[bookID]
	return o, ok
}

var testBook = Book{
	ID:       "b1",
	Title:    "Test",
	Author:   "Author",
	Price:    500,
	FileURL:  "https://files.example.com/b1.pdf",
	Category: "Fiction",
}

func TestHTTPHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo), nil)

	mockRepo.EXPECT().FindAll(gomock.Any()).Return([]Book{testBook})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/books", nil)

	handler.List(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []BookView            `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "b1", body.Data[0].ID)
	assert.Equal(t, "₦500.00", body.Data[0].PriceFormatted)
	assert.Equal(t, float64(1), body.Meta["total"])
}

func TestHTTPHandler_ListPaging(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantLen  int
		wantPage float64
		wantSize float64
	}{
		{name: "defaults", query: "", wantLen: 3, wantPage: 1, wantSize: 20},
		{name: "second page", query: "?page=2&page_size=2", wantLen: 1, wantPage: 2, wantSize: 2},
		{name: "past the end", query: "?page=9&page_size=2", wantLen: 0, wantPage: 9, wantSize: 2},
		{name: "garbage page", query: "?page=abc", wantLen: 3, wantPage: 1, wantSize: 20},
		{name: "oversized page_size", query: "?page_size=1000", wantLen: 3, wantPage: 1, wantSize: 20},
		{name: "huge page", query: "?page=461168601842738792", wantLen: 0, wantPage: maxPage, wantSize: 20},
		{name: "huge page and size", query: "?page=9223372036854775807&page_size=100", wantLen: 0, wantPage: maxPage, wantSize: 100},
	}

	books := []Book{testBook, {ID: "b2", Price: 100}, {ID: "b3", Price: 200}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewStaticRepo(books)
			require.NoError(t, err)
			handler := NewHTTPHandler(NewService(repo), nil)

			w := httptest.NewRecorder()
			handler.List(w, httptest.NewRequest(http.MethodGet, "/v1/books"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Data []BookView            `json:"data"`
				Meta map[string]interface{} `json:"meta"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Len(t, body.Data, tt.wantLen)
			assert.Equal(t, tt.wantPage, body.Meta["page"])
			assert.Equal(t, tt.wantSize, body.Meta["page_size"])
			assert.Equal(t, float64(3), body.Meta["total"])
		})
	}
}

func TestHTTPHandler_Detail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)

	t.Run("not owned", func(t *testing.T) {
		handler := NewHTTPHandler(NewService(mockRepo), stubOwners{})
		mockRepo.EXPECT().FindByID(gomock.Any(), "b1").Return(testBook, true)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/b1", nil)
		r.SetPathValue("id", "b1")

		handler.Detail(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data DetailView `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.False(t, body.Data.Owned)
		assert.Nil(t, body.Data.Ownership)
	})

	t.Run("owned", func(t *testing.T) {
		purchased := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		handler := NewHTTPHandler(NewService(mockRepo), stubOwners{
			"b1": {Reference: "ref-1", PurchaseDate: purchased, DownloadPath: "/v1/books/b1/download"},
		})
		mockRepo.EXPECT().FindByID(gomock.Any(), "b1").Return(testBook, true)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/b1", nil)
		r.SetPathValue("id", "b1")

		handler.Detail(w, r)

		var body struct {
			Data DetailView `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.Data.Owned)
		require.NotNil(t, body.Data.Ownership)
		assert.Equal(t, "ref-1", body.Data.Ownership.Reference)
		assert.True(t, purchased.Equal(body.Data.Ownership.PurchaseDate))
	})

	t.Run("not found", func(t *testing.T) {
		handler := NewHTTPHandler(NewService(mockRepo), stubOwners{})
		mockRepo.EXPECT().FindByID(gomock.Any(), "zzz").Return(Book{}, false)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/zzz", nil)
		r.SetPathValue("id", "zzz")

		handler.Detail(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		var body struct {
			Meta map[string]interface{} `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "/v1/books", body.Meta["redirect"])
	})
}
