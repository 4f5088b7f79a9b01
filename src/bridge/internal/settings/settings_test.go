package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSettings(t *testing.T, file string) (*settingsImpl, *fxtest.Lifecycle) {
	cfg := map[string]interface{}{}
	if file != "" {
		cfg["settings"] = map[string]interface{}{"file": file}
	}
	provider, err := config.NewStaticProvider(cfg)
	require.NoError(t, err)

	lc := fxtest.NewLifecycle(t)
	s, err := New(Params{Config: provider, Lifecycle: lc, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	return s.(*settingsImpl), lc
}

func TestNew(t *testing.T) {
	t.Run("no file configured", func(t *testing.T) {
		s, lc := newTestSettings(t, "")
		lc.RequireStart()
		assert.Equal(t, Values{}, s.Current())
		lc.RequireStop()
	})

	t.Run("missing file", func(t *testing.T) {
		s, lc := newTestSettings(t, filepath.Join(t.TempDir(), "importjs.yaml"))
		lc.RequireStart()
		assert.Equal(t, Values{}, s.Current())
		lc.RequireStop()
	})

	t.Run("reads paths and executable", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "importjs.yaml")
		require.NoError(t, os.WriteFile(file, []byte("paths:\n  - /opt/node/bin\n  - /usr/local/bin\nexecutable: importjsd-dev\n"), 0644))

		s, lc := newTestSettings(t, file)
		lc.RequireStart()
		assert.Equal(t, Values{Paths: []string{"/opt/node/bin", "/usr/local/bin"}, Executable: "importjsd-dev"}, s.Current())
		lc.RequireStop()
	})

	t.Run("invalid file is ignored", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "importjs.yaml")
		require.NoError(t, os.WriteFile(file, []byte("paths: [unterminated"), 0644))

		s, lc := newTestSettings(t, file)
		lc.RequireStart()
		assert.Equal(t, Values{}, s.Current())
		lc.RequireStop()
	})
}

func TestCurrentReturnsCopy(t *testing.T) {
	s := &settingsImpl{current: Values{Paths: []string{"/a"}}}
	v := s.Current()
	v.Paths[0] = "/mutated"
	assert.Equal(t, "/a", s.Current().Paths[0])
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "importjs.yaml")
	require.NoError(t, os.WriteFile(file, []byte("paths: [/a]\n"), 0644))

	s := &settingsImpl{file: file, current: Values{Paths: []string{"/a"}}, logger: zap.NewNop().Sugar()}
	var got []Values
	s.Subscribe(func(_ context.Context, v Values) { got = append(got, v) })

	s.reload(ctx)
	assert.Empty(t, got, "unchanged values must not notify")

	require.NoError(t, os.WriteFile(file, []byte("paths: [/b, /c]\n"), 0644))
	s.reload(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"/b", "/c"}, got[0].Paths)

	require.NoError(t, os.WriteFile(file, []byte("paths: {"), 0644))
	s.reload(ctx)
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"/b", "/c"}, s.Current().Paths, "decode failure keeps previous values")
}

func TestWatch(t *testing.T) {
	file := filepath.Join(t.TempDir(), "importjs.yaml")
	require.NoError(t, os.WriteFile(file, []byte("paths: [/a]\n"), 0644))

	s, lc := newTestSettings(t, file)

	var mu sync.Mutex
	var got []Values
	s.Subscribe(func(_ context.Context, v Values) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
	})
	lc.RequireStart()

	want := Values{Paths: []string{"/b"}, Executable: "custom"}
	require.NoError(t, os.WriteFile(file, []byte("paths: [/b]\nexecutable: custom\n"), 0644))
	assert.Eventually(t, func() bool {
		return s.Current().Equal(want)
	}, 5*time.Second, 10*time.Millisecond)

	lc.RequireStop()
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	assert.Equal(t, want, got[len(got)-1])
}

func TestWatchDebounce(t *testing.T) {
	file := filepath.Join(t.TempDir(), "importjs.yaml")
	require.NoError(t, os.WriteFile(file, []byte("paths: [/a]\n"), 0644))

	s, lc := newTestSettings(t, file)
	s.debounce = 300 * time.Millisecond

	var mu sync.Mutex
	var got []Values
	s.Subscribe(func(_ context.Context, v Values) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
	})
	lc.RequireStart()

	// A save split into truncate and write events, then a second save, all within the quiet period.
	require.NoError(t, os.WriteFile(file, nil, 0644))
	require.NoError(t, os.WriteFile(file, []byte("paths: [/b]\n"), 0644))
	require.NoError(t, os.WriteFile(file, []byte("paths: [/c]\n"), 0644))

	want := Values{Paths: []string{"/c"}}
	assert.Eventually(t, func() bool {
		return s.Current().Equal(want)
	}, 5*time.Second, 10*time.Millisecond)
	// Leave room for a stray second notification before checking there was only one.
	time.Sleep(2 * s.debounce)

	lc.RequireStop()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Values{want}, got)
}
