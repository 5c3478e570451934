// Command migrate copies drafts from one storage backend to another, keeping
// their ids. Drafts already present in the target are skipped.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/pkg/errors"

	"github.com/debemdeboas/x-mcp/internal/config"
	"github.com/debemdeboas/x-mcp/internal/repository"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	from := flag.String("from", "", "Source backend (defaults to drafts.backend)")
	to := flag.String("to", "", "Target backend: fs, s3")
	dir := flag.String("dir", "", "Drafts directory of an fs target (defaults to drafts.dir)")
	flag.Parse()

	if *to == "" {
		log.Fatal("The --to flag is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	srcCfg := cfg.Drafts
	if *from != "" {
		srcCfg.Backend = *from
	}
	dstCfg := cfg.Drafts
	dstCfg.Backend = *to
	if *dir != "" {
		dstCfg.Dir = *dir
	}
	if srcCfg == dstCfg {
		log.Fatal("Source and target are the same store")
	}

	ctx := context.Background()
	src, err := repository.Open(ctx, srcCfg)
	if err != nil {
		log.Fatalf("Error opening source store: %v", err)
	}
	dst, err := repository.Open(ctx, dstCfg)
	if err != nil {
		log.Fatalf("Error opening target store: %v", err)
	}

	copied, skipped, err := migrate(ctx, src, dst)
	if err != nil {
		log.Fatalf("Migration stopped after %d drafts: %v", copied, err)
	}
	log.Printf("Copied %d drafts from %s to %s (%d already present)", copied, srcCfg.Backend, dstCfg.Backend, skipped)
}

// migrate copies every draft of src into dst under the same id.
func migrate(ctx context.Context, src repository.DraftRepository, dst repository.Restorer) (copied, skipped int, err error) {
	entries, err := src.List(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "list source drafts")
	}

	for _, e := range entries {
		err := dst.Restore(ctx, e.ID, e.Draft)
		if errors.Is(err, repository.ErrDraftExists) {
			log.Printf("Skipping %s: already in target", e.ID)
			skipped++
			continue
		}
		if err != nil {
			return copied, skipped, errors.Wrapf(err, "copy %s", e.ID)
		}
		copied++
	}
	return copied, skipped, nil
}
