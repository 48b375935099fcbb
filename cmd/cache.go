package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

// CacheShow prints every entry in every result cache file under the cache
// directory, flagging the ones past their expiry.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	files, err := r.cacheFiles()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return r.writePlain("Cache directory %s is empty.\n", r.config.Cache.Dir)
	}

	now := time.Now()
	for _, path := range files {
		store := r.openCache(strings.TrimSuffix(filepath.Base(path), ".json"))

		r.writePlain("%s (%d entries)\n", path, store.Len())
		for _, entry := range store.Entries() {
			marker := "✓"
			if now.After(entry.Expiry) {
				marker = "✗ expired"
			}
			r.writePlain("  %s %s -> %s (until %s)\n", marker, entry.Key, string(entry.Value), entry.Expiry.Format(time.RFC3339))
		}
	}

	return nil
}

// CacheClear deletes every result cache file. The caches are rebuilt lazily
// on the next lookup, so this is always safe.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	files, err := r.cacheFiles()
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := os.Remove(path); err != nil {
			return err
		}
		r.logger.Info("removed cache file", "path", path)
	}

	return r.writePlain("✓ Removed %d cache file(s)\n", len(files))
}

func (r *Runner) cacheFiles() ([]string, error) {
	return filepath.Glob(filepath.Join(r.config.Cache.Dir, "*.json"))
}

// cacheCommand handles result cache inspection and cleanup
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the on-disk result caches",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "List cached lookups and their expiry",
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cache file",
				Action: r.CacheClear,
			},
		},
	}
}
