package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ebookstore/internal/catalog"
	"ebookstore/internal/platform/logging"
	"ebookstore/internal/platform/openlibrary"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	out      string
	subjects []string
	perTopic int
	bucket   string
	rps      int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Build a catalog file from Open Library subjects",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "data/books.json", "catalog file to write (.json, .yaml or .yml)")
	cmd.Flags().StringSliceVar(&opts.subjects, "subject", []string{"fiction", "history", "science"}, "Open Library subjects to pull")
	cmd.Flags().IntVar(&opts.perTopic, "per-subject", 5, "books per subject")
	cmd.Flags().StringVar(&opts.bucket, "bucket", "ebooks", "bucket the e-book files live in")
	cmd.Flags().IntVar(&opts.rps, "rps", 1, "Open Library requests per second")
	return cmd
}

func run(ctx context.Context, opts seedOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(os.Getenv("LOG_LEVEL"), "console")
	client := openlibrary.NewClient("ebookstore-seed/1.0 (+https://github.com/ebookstore)", opts.rps, 3)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var books []catalog.Book
	seen := map[string]bool{}
	for _, subject := range opts.subjects {
		res, err := client.SearchBySubject(ctx, subject, opts.perTopic)
		if err != nil {
			return fmt.Errorf("search %q: %w", subject, err)
		}
		added := 0
		for _, w := range res.Docs {
			b, ok := bookFromWork(w, subject, opts.bucket)
			if !ok || seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			books = append(books, b)
			added++
		}
		logger.Info().Str("subject", subject).Int("books", added).Msg("subject fetched")
	}

	// reject anything the API would refuse to load
	if _, err := catalog.NewStaticRepo(books); err != nil {
		return err
	}

	raw, err := catalog.Encode(books, filepath.Ext(opts.out))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, raw, 0o644); err != nil {
		return err
	}
	logger.Info().Str("path", opts.out).Int("books", len(books)).Msg("catalog written")
	return nil
}

// bookFromWork maps an Open Library work onto a catalog entry. Prices are derived from the work
// id so reseeding gives stable prices.
func bookFromWork(w openlibrary.Work, subject, bucket string) (catalog.Book, bool) {
	id := w.ID()
	title := strings.TrimSpace(w.Title)
	if id == "" || title == "" {
		return catalog.Book{}, false
	}

	desc := fmt.Sprintf("%s by %s.", title, w.Author())
	if len(w.FirstSentence) > 0 {
		desc = w.FirstSentence[0]
	} else if w.FirstPublishYear > 0 {
		desc = fmt.Sprintf("%s by %s, first published in %d.", title, w.Author(), w.FirstPublishYear)
	}

	return catalog.Book{
		ID:          id,
		Title:       title,
		Author:      w.Author(),
		Price:       priceFor(id),
		Description: desc,
		CoverImage:  w.CoverURL(),
		FileURL:     fmt.Sprintf("s3://%s/%s.pdf", bucket, id),
		Category:    categoryName(subject),
	}, true
}

// priceFor returns a whole-naira price between 1,000 and 4,900 in steps of 100.
func priceFor(id string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return 1000 + int64(h.Sum32()%40)*100
}

func categoryName(subject string) string {
	words := strings.Fields(strings.ReplaceAll(subject, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
