package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pub-health/health"
	"pub-health/manifest"
	"pub-health/source"
	"pub-health/storage"

	"github.com/sirupsen/logrus"
)

// ErrBusy is returned when a report cycle is requested while another one is
// still running.
var ErrBusy = errors.New("report generation already in progress")

type Storage interface {
	ReplaceReport(ctx context.Context, status string, generatedAt time.Time, deps []storage.DependencyHealth) error
	ClearReport(ctx context.Context) error
}

type ManifestSource interface {
	ReadManifest(ctx context.Context) (string, error)
}

type RegistryAPI interface {
	FetchLatestVersion(ctx context.Context, name string) (string, error)
	FetchTags(ctx context.Context, name string) ([]string, error)
}

type DataManager struct {
	Store         Storage
	Source        ManifestSource
	API           RegistryAPI
	Log           *logrus.Logger
	MaxConcurrent int

	busy    atomic.Bool
	visible atomic.Bool
}

// GenerateReport runs one extraction and classification cycle and stores the
// result. A missing manifest yields a report with StatusNotFound rather than
// an error. Only one cycle runs at a time; overlapping calls get ErrBusy.
func (dm *DataManager) GenerateReport(ctx context.Context) (health.Report, error) {
	if !dm.busy.CompareAndSwap(false, true) {
		return health.Report{}, ErrBusy
	}
	defer dm.busy.Store(false)

	report, err := dm.buildReport(ctx)
	if err != nil {
		dm.Log.WithError(err).Error("failed to build report")
		return health.Report{}, err
	}
	report.GeneratedAt = time.Now().UTC()

	if dm.Store != nil {
		if err := dm.Store.ReplaceReport(ctx, string(report.Status), report.GeneratedAt, toStorage(report.Dependencies)); err != nil {
			dm.Log.WithError(err).Error("failed to store report")
			return health.Report{}, err
		}
	}

	dm.Log.WithFields(logrus.Fields{
		"status":       report.Status,
		"dependencies": len(report.Dependencies),
	}).Info("Report generated")
	return report, nil
}

// Declared returns the dependencies extracted from the manifest without
// contacting the registry.
func (dm *DataManager) Declared(ctx context.Context) ([]manifest.Dependency, error) {
	text, err := dm.Source.ReadManifest(ctx)
	if err != nil {
		return nil, err
	}
	return manifest.Extract(text), nil
}

func (dm *DataManager) buildReport(ctx context.Context) (health.Report, error) {
	text, err := dm.Source.ReadManifest(ctx)
	if errors.Is(err, source.ErrManifestNotFound) {
		dm.Log.WithError(err).Warn("no manifest found")
		return health.NotFoundReport(), nil
	}
	if err != nil {
		return health.Report{}, err
	}

	deps := manifest.Extract(text)
	dm.Log.Infof("Fetching registry metadata for %d dependencies", len(deps))

	return health.BuildReport(dm.fetchAll(ctx, deps)), nil
}

// fetchAll looks up every dependency concurrently. A failed lookup leaves
// that dependency without metadata and never affects the others.
func (dm *DataManager) fetchAll(ctx context.Context, deps []manifest.Dependency) []health.Lookup {
	limit := dm.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	var (
		results = make([]health.Lookup, len(deps))
		wg      sync.WaitGroup
		sem     = make(chan struct{}, limit)
	)

	for i, dep := range deps {
		results[i] = health.Lookup{Dependency: dep}

		wg.Add(1)
		go func(i int, dep manifest.Dependency) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			meta, err := dm.fetchMetadata(ctx, dep.Name)
			if err != nil {
				dm.Log.WithField("dependency", dep.Name).WithError(err).Warn("registry metadata unavailable")
				return
			}
			results[i].Metadata = meta
		}(i, dep)
	}

	wg.Wait()
	return results
}

func (dm *DataManager) fetchMetadata(ctx context.Context, name string) (*health.Metadata, error) {
	latest, err := dm.API.FetchLatestVersion(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}
	tags, err := dm.API.FetchTags(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return &health.Metadata{LatestVersion: latest, Tags: tags}, nil
}

// SetVisible records whether the report is currently being looked at.
func (dm *DataManager) SetVisible(visible bool) {
	dm.visible.Store(visible)
}

func (dm *DataManager) Visible() bool {
	return dm.visible.Load()
}

// ManifestChanged reacts to a manifest change: the report is regenerated
// while visible, otherwise the stored report is dropped so that it is
// rebuilt on the next explicit refresh.
func (dm *DataManager) ManifestChanged(ctx context.Context) {
	if !dm.Visible() {
		if dm.Store == nil {
			return
		}
		if err := dm.Store.ClearReport(ctx); err != nil {
			dm.Log.WithError(err).Error("failed to clear stored report")
		}
		return
	}

	if _, err := dm.GenerateReport(ctx); err != nil {
		if errors.Is(err, ErrBusy) {
			dm.Log.Debug("manifest change ignored, report generation in progress")
			return
		}
		dm.Log.WithError(err).Error("report regeneration failed")
	}
}

func toStorage(records []health.Record) []storage.DependencyHealth {
	out := make([]storage.DependencyHealth, 0, len(records))
	for _, r := range records {
		out = append(out, storage.DependencyHealth{
			Name:           r.Name,
			CurrentVersion: r.CurrentVersion,
			LatestVersion:  r.LatestVersion,
			IsDeprecated:   r.IsDeprecated,
			IsDiscontinued: r.IsDiscontinued,
			IsOutdated:     r.IsOutdated,
			UpdateKind:     r.UpdateKind,
		})
	}
	return out
}
