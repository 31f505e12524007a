package source

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type ManifestReader interface {
	ReadManifest(ctx context.Context) (string, error)
}

// Watcher polls a manifest on a cron schedule and calls OnChange whenever its
// content differs from the previous poll. A manifest that disappears counts as
// a change.
type Watcher struct {
	Source   ManifestReader
	Schedule string
	OnChange func(ctx context.Context)
	Log      *logrus.Logger

	mu       sync.Mutex
	lastHash string
	cron     *cron.Cron
}

func (w *Watcher) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.Schedule, func() { w.Poll(context.Background()) }); err != nil {
		return err
	}
	w.Poll(context.Background())
	w.cron.Start()
	return nil
}

func (w *Watcher) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Poll checks the manifest once. The first poll only records the baseline.
func (w *Watcher) Poll(ctx context.Context) bool {
	text, err := w.Source.ReadManifest(ctx)
	var hash string
	switch {
	case errors.Is(err, ErrManifestNotFound):
		hash = "missing"
	case err != nil:
		w.Log.WithError(err).Warn("manifest poll failed")
		return false
	default:
		hash = Hash(text)
	}

	w.mu.Lock()
	first := w.lastHash == ""
	changed := !first && hash != w.lastHash
	w.lastHash = hash
	w.mu.Unlock()

	if changed {
		w.Log.Info("Manifest changed")
		if w.OnChange != nil {
			w.OnChange(ctx)
		}
	}
	return changed
}
