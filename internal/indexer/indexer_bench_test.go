package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Aman-CERP/backdrops/internal/config"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/metadata"
)

// Larger collections: go run scripts/generate-test-corpus.go
func benchCorpus(b *testing.B, n int) (identifier.Roots, []identifier.ID) {
	b.Helper()
	root := b.TempDir()
	ids := make([]identifier.ID, n)
	for i := range n {
		folder := fmt.Sprintf("bg_%04d", i)
		dir := filepath.Join(root, folder)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatal(err)
		}
		rec := fmt.Sprintf(`{"public":{"name":"Background %d","tags":["landscape","%s"]}}`, i%50, config.PublicTags[i%len(config.PublicTags)])
		if err := os.WriteFile(metadata.Path(dir), []byte(rec), 0o644); err != nil {
			b.Fatal(err)
		}
		ids[i] = identifier.ID(folder)
	}
	return identifier.Roots{Primary: root}, ids
}

func BenchmarkBuild(b *testing.B) {
	roots, ids := benchCorpus(b, 500)
	allowed := config.AllowedTags(nil)

	for _, width := range []int{1, 8, DefaultWidth} {
		b.Run(fmt.Sprintf("width=%d", width), func(b *testing.B) {
			builder := New(roots, width)
			for b.Loop() {
				if _, _, err := builder.Build(context.Background(), ids, allowed); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
