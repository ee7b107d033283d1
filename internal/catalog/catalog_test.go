package catalog

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooks() []Book {
	return []Book{
		{ID: "b1", Title: "One", Price: 500, Category: "Fiction", FileURL: "https://x/1.pdf"},
		{ID: "b2", Title: "Two", Price: 2500, Category: "Business", FileURL: "https://x/2.pdf"},
		{ID: "b3", Title: "Three", Price: 1200, Category: "Fiction", FileURL: "s3://bucket/3.pdf"},
	}
}

func TestNewStaticRepo_Validation(t *testing.T) {
	tests := []struct {
		name  string
		books []Book
	}{
		{"missing id", []Book{{Title: "x", Price: 1}}},
		{"zero price", []Book{{ID: "a", Price: 0}}},
		{"negative price", []Book{{ID: "a", Price: -5}}},
		{"duplicate id", []Book{{ID: "a", Price: 1}, {ID: "a", Price: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticRepo(tt.books)
			assert.Error(t, err)
		})
	}
}

func TestStaticRepo_FindByID(t *testing.T) {
	repo, err := NewStaticRepo(sampleBooks())
	require.NoError(t, err)

	b, ok := repo.FindByID(context.Background(), "b2")
	require.True(t, ok)
	assert.Equal(t, "Two", b.Title)

	_, ok = repo.FindByID(context.Background(), "nope")
	assert.False(t, ok)
}

func TestStaticRepo_FindAllIsACopy(t *testing.T) {
	repo, err := NewStaticRepo(sampleBooks())
	require.NoError(t, err)

	all := repo.FindAll(context.Background())
	require.Len(t, all, 3)
	assert.Equal(t, "b1", all[0].ID)

	all[0].Title = "mutated"
	again := repo.FindAll(context.Background())
	assert.Equal(t, "One", again[0].Title)
}

func TestService_List(t *testing.T) {
	repo, err := NewStaticRepo(sampleBooks())
	require.NoError(t, err)
	svc := NewService(repo)
	ctx := context.Background()

	books, total := svc.List(ctx, Query{Category: "Fiction"})
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"b1", "b3"}, []string{books[0].ID, books[1].ID})

	books, total = svc.List(ctx, Query{Limit: 2, Offset: 2})
	assert.Equal(t, 3, total)
	require.Len(t, books, 1)
	assert.Equal(t, "b3", books[0].ID)

	books, _ = svc.List(ctx, Query{Offset: 10})
	assert.Empty(t, books)

	books, total = svc.List(ctx, Query{Offset: -5, Limit: 2})
	assert.Empty(t, books)
	assert.Equal(t, 3, total)

	books, _ = svc.List(ctx, Query{Offset: 1, Limit: math.MaxInt})
	assert.Len(t, books, 2)
}

func TestService_Get(t *testing.T) {
	repo, err := NewStaticRepo(sampleBooks())
	require.NoError(t, err)
	svc := NewService(repo)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := svc.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), b.MinorAmount())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "₦2,500.00", FormatPrice(2500))
	assert.Equal(t, "₦500.00", FormatPrice(500))
	assert.Equal(t, "₦1,250,000.00", FormatPrice(1250000))
}

func TestDecode_JSONAndYAML(t *testing.T) {
	jsonRaw := []byte(`[{"id":"b1","title":"One","author":"A","price":500,"description":"d","fileUrl":"https://x","category":"Fiction"}]`)
	books, err := Decode(jsonRaw, ".json")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int64(500), books[0].Price)

	yamlRaw := []byte("- id: b1\n  title: One\n  price: 500\n  fileUrl: https://x\n")
	books, err = Decode(yamlRaw, ".yml")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "https://x", books[0].FileURL)

	_, err = Decode([]byte(`[{"id":"b1","isbn":"x"}]`), ".json")
	assert.Error(t, err, "unknown fields are rejected")

	_, err = Decode(jsonRaw, ".toml")
	assert.Error(t, err)
}

func TestLoadFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.yaml")

	raw, err := Encode(sampleBooks(), filepath.Ext(path))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	repo, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, repo.FindAll(context.Background()), 3)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
