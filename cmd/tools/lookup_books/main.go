package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"readsync/internal/lookup"
)

type result struct {
	Query       string             `json:"query"`
	Candidates  []lookup.Candidate `json:"candidates"`
	Submissions []map[string]any   `json:"submissions"`
}

func main() {
	outPath := flag.String("out", "data/lookup.json", "output json path, - for stdout")
	n := flag.Int("n", 5, "candidates per query")
	workers := flag.Int("c", 4, "concurrent lookups")
	baseURL := flag.String("base", lookup.DefaultBaseURL, "catalogue base url")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: lookup_books [flags] query [query...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	queries := make([]string, 0, flag.NArg())
	for _, q := range flag.Args() {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := lookup.NewOpenLibrary(*baseURL, nil).WithLimit(*n)
	out := make([]result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*workers, 1))
	for i, q := range queries {
		g.Go(func() error {
			cands, err := client.Search(gctx, q)
			if err != nil {
				return fmt.Errorf("%q: %w", q, err)
			}
			subs := make([]map[string]any, 0, len(cands))
			for _, c := range cands {
				subs = append(subs, c.Submission())
			}
			out[i] = result{Query: q, Candidates: cands, Submissions: subs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		os.Exit(1)
	}

	j, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
	if *outPath == "-" {
		os.Stdout.Write(append(j, '\n'))
		return
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, j, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *outPath, err)
		os.Exit(1)
	}

	total := 0
	for _, r := range out {
		total += len(r.Candidates)
	}
	fmt.Printf("Wrote %d candidates for %d queries -> %s\n", total, len(queries), *outPath)
}
