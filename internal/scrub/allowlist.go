package scrub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Allowlist exempts matching values from redaction.
//
// File format:
//
//	[allowlist]
//	regexes = ['''^example-token-\d+$''']
//	stopwords = ["placeholder"]
type Allowlist struct {
	Regexes   []string `toml:"regexes"`
	StopWords []string `toml:"stopwords"`
}

func (a *Allowlist) validate() error {
	for _, p := range a.Regexes {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidRegex, p, err)
		}
	}
	return nil
}

// LoadAllowlist reads an allowlist file. A missing file yields an empty allowlist.
func LoadAllowlist(path string) (*Allowlist, error) {
	var doc struct {
		Allowlist Allowlist `toml:"allowlist"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Allowlist{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}
	if err := doc.Allowlist.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &doc.Allowlist, nil
}

// WatchAllowlist reloads path into g whenever it changes, until ctx is done.
// A file that fails to load is logged and the previous allowlist stays active.
func WatchAllowlist(ctx context.Context, path string, g *Gitleaks, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				a, err := LoadAllowlist(path)
				if err != nil {
					logger.Warn("allowlist reload failed", zap.String("path", path), zap.Error(err))
					continue
				}
				if err := g.SetAllowlist(a); err != nil {
					logger.Warn("allowlist rejected", zap.String("path", path), zap.Error(err))
					continue
				}
				logger.Info("allowlist reloaded", zap.String("path", path), zap.Int("regexes", len(a.Regexes)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("allowlist watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
