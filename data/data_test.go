package data_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pub-health/data"
	"pub-health/health"
	"pub-health/manifest"
	"pub-health/source"
	"pub-health/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type mockRegistryAPI struct {
	FetchLatestVersionFn func(ctx context.Context, name string) (string, error)
	FetchTagsFn          func(ctx context.Context, name string) ([]string, error)
}

func (m *mockRegistryAPI) FetchLatestVersion(ctx context.Context, name string) (string, error) {
	return m.FetchLatestVersionFn(ctx, name)
}
func (m *mockRegistryAPI) FetchTags(ctx context.Context, name string) ([]string, error) {
	return m.FetchTagsFn(ctx, name)
}

type mockStorage struct {
	ReplaceFn func(ctx context.Context, status string, generatedAt time.Time, deps []storage.DependencyHealth) error
	ClearFn   func(ctx context.Context) error
	Replaced  []storage.DependencyHealth
	Status    string
	Cleared   bool
}

func (m *mockStorage) ReplaceReport(ctx context.Context, status string, generatedAt time.Time, deps []storage.DependencyHealth) error {
	m.Replaced = deps
	m.Status = status
	if m.ReplaceFn != nil {
		return m.ReplaceFn(ctx, status, generatedAt, deps)
	}
	return nil
}
func (m *mockStorage) ClearReport(ctx context.Context) error {
	m.Cleared = true
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return nil
}

type mockSource struct {
	ReadFn func(ctx context.Context) (string, error)
}

func (m *mockSource) ReadManifest(ctx context.Context) (string, error) {
	return m.ReadFn(ctx)
}

func staticSource(text string) *mockSource {
	return &mockSource{ReadFn: func(ctx context.Context) (string, error) { return text, nil }}
}

const testManifest = `name: app
dependencies:
  aaa: ^1.0.0
  bbb: 1.0.0
  local_pkg:
    path: ../local_pkg
dev_dependencies:
  zzz: 1.0.0
`

func registry(latest map[string]string, tags map[string][]string) *mockRegistryAPI {
	return &mockRegistryAPI{
		FetchLatestVersionFn: func(ctx context.Context, name string) (string, error) {
			v, ok := latest[name]
			if !ok {
				return "", fmt.Errorf("%s: not found", name)
			}
			return v, nil
		},
		FetchTagsFn: func(ctx context.Context, name string) ([]string, error) {
			return tags[name], nil
		},
	}
}

func names(records []health.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestGenerateReport_Success(t *testing.T) {
	api := registry(
		map[string]string{"aaa": "1.2.0", "bbb": "1.0.0", "zzz": "3.0.0", "local_pkg": "1.0.0"},
		map[string][]string{"zzz": {health.TagDiscontinued}},
	)
	store := &mockStorage{}

	manager := &data.DataManager{
		Store:         store,
		Source:        staticSource(testManifest),
		API:           api,
		Log:           logrus.New(),
		MaxConcurrent: 2,
	}

	report, err := manager.GenerateReport(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, health.StatusReady, report.Status)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, []string{"zzz", "aaa", "bbb", "local_pkg"}, names(report.Dependencies))

	zzz := report.Dependencies[0]
	assert.True(t, zzz.IsDiscontinued)
	assert.True(t, zzz.IsOutdated)
	assert.Equal(t, "3.0.0", zzz.LatestVersion)

	local := report.Dependencies[3]
	assert.Equal(t, manifest.VersionPath, local.CurrentVersion)
	assert.False(t, local.IsOutdated)

	assert.Equal(t, "ready", store.Status)
	assert.Len(t, store.Replaced, 4)
	assert.Equal(t, "zzz", store.Replaced[0].Name)
}

func TestGenerateReport_IsolatesFetchFailure(t *testing.T) {
	api := registry(
		map[string]string{"aaa": "2.0.0", "zzz": "1.0.0", "local_pkg": "1.0.0"},
		map[string][]string{"bbb": {health.TagDeprecated}},
	)

	manager := &data.DataManager{
		Store:         &mockStorage{},
		Source:        staticSource(testManifest),
		API:           api,
		Log:           logrus.New(),
		MaxConcurrent: 4,
	}

	report, err := manager.GenerateReport(context.Background())
	assert.NoError(t, err)
	assert.Len(t, report.Dependencies, 4)

	for _, rec := range report.Dependencies {
		if rec.Name != "bbb" {
			continue
		}
		assert.Empty(t, rec.LatestVersion)
		assert.False(t, rec.IsDeprecated)
		assert.False(t, rec.IsDiscontinued)
		assert.False(t, rec.IsOutdated)
	}
	assert.Equal(t, "aaa", report.Dependencies[0].Name)
}

func TestGenerateReport_TagFailureMakesMetadataUnavailable(t *testing.T) {
	api := &mockRegistryAPI{
		FetchLatestVersionFn: func(ctx context.Context, name string) (string, error) {
			return "9.0.0", nil
		},
		FetchTagsFn: func(ctx context.Context, name string) ([]string, error) {
			return nil, errors.New("timeout")
		},
	}

	manager := &data.DataManager{
		Source:        staticSource("dependencies:\n  foo: 1.0.0\n"),
		API:           api,
		Log:           logrus.New(),
		MaxConcurrent: 1,
	}

	report, err := manager.GenerateReport(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []health.Record{{Name: "foo", CurrentVersion: "1.0.0"}}, report.Dependencies)
}

func TestGenerateReport_ManifestNotFound(t *testing.T) {
	src := &mockSource{ReadFn: func(ctx context.Context) (string, error) {
		return "", fmt.Errorf("%w: pubspec.yaml", source.ErrManifestNotFound)
	}}
	store := &mockStorage{}

	manager := &data.DataManager{
		Store:  store,
		Source: src,
		API:    &mockRegistryAPI{},
		Log:    logrus.New(),
	}

	report, err := manager.GenerateReport(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, health.StatusNotFound, report.Status)
	assert.Equal(t, "not_found", store.Status)
}

func TestGenerateReport_EmptyManifest(t *testing.T) {
	manager := &data.DataManager{
		Store:  &mockStorage{},
		Source: staticSource("name: app\ndependencies:\ndev_dependencies:\n"),
		API:    &mockRegistryAPI{},
		Log:    logrus.New(),
	}

	report, err := manager.GenerateReport(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, health.StatusEmpty, report.Status)
	assert.NotEqual(t, health.StatusNotFound, report.Status)
}

func TestGenerateReport_ReadError(t *testing.T) {
	manager := &data.DataManager{
		Source: &mockSource{ReadFn: func(ctx context.Context) (string, error) {
			return "", errors.New("permission denied")
		}},
		API: &mockRegistryAPI{},
		Log: logrus.New(),
	}

	_, err := manager.GenerateReport(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestGenerateReport_StoreError(t *testing.T) {
	store := &mockStorage{
		ReplaceFn: func(ctx context.Context, status string, generatedAt time.Time, deps []storage.DependencyHealth) error {
			return errors.New("upsert failed")
		},
	}

	manager := &data.DataManager{
		Store:  store,
		Source: staticSource("dependencies:\n  foo: any\n"),
		API:    registry(map[string]string{"foo": "1.0.0"}, nil),
		Log:    logrus.New(),
	}

	_, err := manager.GenerateReport(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upsert failed")
}

func TestGenerateReport_RejectsConcurrentCycle(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	api := &mockRegistryAPI{
		FetchLatestVersionFn: func(ctx context.Context, name string) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return "1.0.0", nil
		},
		FetchTagsFn: func(ctx context.Context, name string) ([]string, error) {
			return nil, nil
		},
	}

	manager := &data.DataManager{
		Source:        staticSource("dependencies:\n  foo: 1.0.0\n"),
		API:           api,
		Log:           logrus.New(),
		MaxConcurrent: 1,
	}

	done := make(chan error, 1)
	go func() {
		_, err := manager.GenerateReport(context.Background())
		done <- err
	}()

	<-started
	_, err := manager.GenerateReport(context.Background())
	assert.ErrorIs(t, err, data.ErrBusy)

	close(release)
	assert.NoError(t, <-done)

	_, err = manager.GenerateReport(context.Background())
	assert.NoError(t, err)
}

func TestDeclared(t *testing.T) {
	manager := &data.DataManager{
		Source: staticSource(testManifest),
		Log:    logrus.New(),
	}

	deps, err := manager.Declared(context.Background())
	assert.NoError(t, err)
	assert.Len(t, deps, 4)
	assert.Equal(t, manifest.Dependency{Name: "aaa", VersionExpression: "1.0.0"}, deps[0])
}

func TestManifestChanged(t *testing.T) {
	t.Run("hidden view clears the stored report", func(t *testing.T) {
		store := &mockStorage{}
		manager := &data.DataManager{
			Store:  store,
			Source: staticSource(testManifest),
			API:    &mockRegistryAPI{},
			Log:    logrus.New(),
		}

		manager.ManifestChanged(context.Background())

		assert.True(t, store.Cleared)
		assert.Nil(t, store.Replaced)
	})

	t.Run("visible view regenerates the report", func(t *testing.T) {
		store := &mockStorage{}
		manager := &data.DataManager{
			Store:         store,
			Source:        staticSource("dependencies:\n  foo: 1.0.0\n"),
			API:           registry(map[string]string{"foo": "1.1.0"}, nil),
			Log:           logrus.New(),
			MaxConcurrent: 1,
		}
		manager.SetVisible(true)

		manager.ManifestChanged(context.Background())

		assert.False(t, store.Cleared)
		assert.Len(t, store.Replaced, 1)
		assert.True(t, store.Replaced[0].IsOutdated)
	})
}
