//go:build ignore

// Package main generates a synthetic background collection for benchmarking
// reindex passes.
// Usage: go run scripts/generate-test-corpus.go -folders 5000 -output testdata/corpus
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	numFolders = flag.Int("folders", 1000, "Number of background folders to generate")
	numRoots   = flag.Int("roots", 1, "Spread folders over this many root directories")
	outputDir  = flag.String("output", "testdata/corpus", "Output directory")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
	stampRatio = flag.Float64("stamped", 0.5, "Fraction of records that carry a saved local.indexed")
)

var tags = []string{
	"abstract", "animals", "anime", "architecture", "art", "cars", "city",
	"cyberpunk", "dark", "fantasy", "landscape", "light", "minimal", "nature",
	"night", "pixel", "retro", "space", "underwater", "vaporwave",
	// not in the public taxonomy, ignored by the indexer
	"wip", "favourite",
}

var words = []string{
	"aurora", "beach", "canyon", "dune", "ember", "fjord", "glacier", "harbor",
	"island", "jungle", "lagoon", "meadow", "nebula", "oasis", "peak", "quarry",
	"reef", "summit", "tundra", "valley",
}

type record struct {
	Public struct {
		Name string   `json:"name"`
		File string   `json:"file"`
		Tags []string `json:"tags"`
	} `json:"public"`
	Local struct {
		Tags    []string `json:"tags,omitempty"`
		Indexed int64    `json:"indexed,omitempty"`
	} `json:"local"`
}

func main() {
	flag.Parse()

	if *numRoots < 1 {
		fmt.Fprintln(os.Stderr, "roots must be at least 1")
		os.Exit(1)
	}
	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().Unix()

	for r := 0; r < *numRoots; r++ {
		if err := os.MkdirAll(rootDir(r), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create root: %v\n", err)
			os.Exit(1)
		}
	}

	for i := 0; i < *numFolders; i++ {
		name := fmt.Sprintf("%s %s", words[rng.Intn(len(words))], words[rng.Intn(len(words))])
		folder := fmt.Sprintf("%s_%d", words[rng.Intn(len(words))], i)
		dir := filepath.Join(rootDir(i%*numRoots), folder)

		var rec record
		rec.Public.Name = name
		rec.Public.File = "background.jpg"
		rec.Public.Tags = pick(rng, 1+rng.Intn(3))
		if rng.Intn(4) == 0 {
			rec.Local.Tags = pick(rng, 1)
		}
		if rng.Float64() < *stampRatio {
			rec.Local.Indexed = now - rng.Int63n(365*24*3600)
		}

		if err := writeFolder(dir, rec); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", dir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d folders across %d root(s) in %s\n", *numFolders, *numRoots, *outputDir)
}

func rootDir(i int) string {
	if *numRoots == 1 {
		return *outputDir
	}
	return filepath.Join(*outputDir, fmt.Sprintf("root%d", i))
}

func pick(rng *rand.Rand, n int) []string {
	out := make([]string, 0, n)
	for _, j := range rng.Perm(len(tags))[:n] {
		out = append(out, tags[j])
	}
	return out
}

func writeFolder(dir string, rec record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "bg.json"), data, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, rec.Public.File), nil, 0o644)
}
