package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDesktop struct {
	mu sync.Mutex

	clip      string
	selection string

	copyWorks     bool
	menuCopyWorks bool
	pasteErr      error
	writeErr      error
	foreground    string

	// в буфере не текст: чтение падает, пока туда не попадёт текст
	nonText bool

	// вызывается после каждой записи: имитация параллельного изменения буфера
	onWrite func(f *fakeDesktop)

	copies, menuCopies, pastes, writes int
	pasted                             []string
}

func (f *fakeDesktop) SimulateCopy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies++
	if f.copyWorks {
		f.clip, f.nonText = f.selection, false
	}
	return nil
}

func (f *fakeDesktop) SimulateMenuCopy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menuCopies++
	if f.menuCopyWorks {
		f.clip, f.nonText = f.selection, false
	}
	return nil
}

func (f *fakeDesktop) SimulatePaste() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pastes++
	if f.pasteErr != nil {
		return f.pasteErr
	}
	f.pasted = append(f.pasted, f.clip)
	return nil
}

func (f *fakeDesktop) ReadClipboard() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nonText {
		return "", errors.New("clipboard holds no text")
	}
	return f.clip, nil
}

func (f *fakeDesktop) WriteClipboard(text string) error {
	f.mu.Lock()
	if f.writeErr != nil && text != "" {
		f.mu.Unlock()
		return f.writeErr
	}
	f.clip, f.nonText = text, false
	f.writes++
	hook := f.onWrite
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return nil
}

func (f *fakeDesktop) ForegroundApp() (string, error) { return f.foreground, nil }

func (f *fakeDesktop) clipboard() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clip
}

type sleepRecorder struct {
	mu    sync.Mutex
	total time.Duration
	calls int
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.total += d
	s.calls++
	s.mu.Unlock()
	return ctx.Err()
}

func newTestController(f *fakeDesktop, cfg Config) (*Controller, *sleepRecorder) {
	rec := &sleepRecorder{}
	return NewController(f, cfg, zap.NewNop().Sugar(), WithSleep(rec.sleep)), rec
}

func TestCaptureSelectionHappyPath(t *testing.T) {
	f := &fakeDesktop{clip: "ORIGINAL", selection: "hey can u check this", copyWorks: true}
	c, rec := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hey can u check this", cp.Text())
	assert.Equal(t, "ORIGINAL", cp.Snapshot().Content)
	assert.True(t, cp.Snapshot().Readable)
	assert.Equal(t, 1, f.copies)
	assert.Zero(t, f.menuCopies)
	assert.Equal(t, 150*time.Millisecond, rec.total)

	require.NoError(t, cp.WriteBack(context.Background(), "Hey, can you check this?"))
	assert.Equal(t, "Hey, can you check this?", f.clipboard())
	assert.Equal(t, []string{"Hey, can you check this?"}, f.pasted)
	assert.True(t, cp.Released())
}

func TestCaptureSelectionSameAsSnapshot(t *testing.T) {
	// выделение совпадает со старым содержимым буфера: очистка позволяет заметить копирование
	f := &fakeDesktop{clip: "same", selection: "same", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "same", cp.Text())
	cp.Release()
}

func TestCaptureSelectionNoSelectionRestoresSnapshot(t *testing.T) {
	f := &fakeDesktop{clip: "keep me"}
	c, rec := newTestController(f, DefaultConfig())

	_, err := c.CaptureSelection(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, "keep me", f.clipboard())
	assert.Equal(t, 1, f.copies)
	assert.Equal(t, 1, f.menuCopies)
	// два механизма по 3 попытки
	assert.Equal(t, 6, rec.calls)
	assert.Equal(t, 900*time.Millisecond, rec.total)
}

func TestCaptureSelectionKeepsUnreadableClipboard(t *testing.T) {
	f := &fakeDesktop{nonText: true}
	c, _ := newTestController(f, DefaultConfig())

	_, err := c.CaptureSelection(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Zero(t, f.writes, "clipboard must not be cleared or overwritten")
	assert.True(t, f.nonText)
}

func TestCaptureSelectionWithUnreadableSnapshot(t *testing.T) {
	f := &fakeDesktop{nonText: true, selection: "text", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text", cp.Text())
	assert.False(t, cp.Snapshot().Readable)

	require.NoError(t, cp.AbortRestore())
	assert.Zero(t, f.writes)
	assert.Equal(t, "text", f.clipboard())
}

func TestCaptureSelectionFallsBackToMenuCopy(t *testing.T) {
	f := &fakeDesktop{clip: "old", selection: "from menu", menuCopyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from menu", cp.Text())
	assert.Equal(t, 1, f.menuCopies)

	require.NoError(t, cp.AbortRestore())
	assert.Equal(t, "old", f.clipboard())
}

func TestCaptureSelectionSkipsKeystrokesForIgnoringApps(t *testing.T) {
	f := &fakeDesktop{clip: "old", selection: "terminal text", copyWorks: true, menuCopyWorks: true, foreground: "WindowsTerminal.exe"}
	cfg := DefaultConfig()
	cfg.IgnoreSimulatedInput = []string{"windowsterminal.exe"}
	c, rec := newTestController(f, cfg)

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "terminal text", cp.Text())
	assert.Zero(t, f.copies)
	assert.Equal(t, 1, f.menuCopies)
	assert.Equal(t, 1, rec.calls)
	cp.Release()
}

func TestCaptureSelectionWhitespaceOnly(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "  \n\t ", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	_, err := c.CaptureSelection(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, "snap", f.clipboard())
}

func TestCaptureSelectionCancelled(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "x", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CaptureSelection(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "snap", f.clipboard())
}

func TestReleaseIsExactlyOnce(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "text", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)
	require.NoError(t, cp.WriteBack(context.Background(), "result"))

	// повторные вызовы ничего не меняют
	require.NoError(t, cp.AbortRestore())
	cp.Release()
	assert.Equal(t, "result", f.clipboard())
	assert.ErrorIs(t, cp.WriteBack(context.Background(), "again"), ErrReleased)
	assert.Equal(t, 1, f.pastes)
}

func TestReleaseRestoresWhenNotFinished(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "text", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	func() {
		cp, err := c.CaptureSelection(context.Background())
		require.NoError(t, err)
		defer cp.Release()
		assert.Equal(t, "text", f.clipboard())
	}()
	assert.Equal(t, "snap", f.clipboard())
}

func TestWriteBackPasteFailureKeepsResult(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "text", copyWorks: true, pasteErr: errors.New("no focus")}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)

	err = cp.WriteBack(context.Background(), "result")
	var rerr *ReplaceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "paste", rerr.Stage)
	assert.Equal(t, "result", f.clipboard())

	cp.Release()
	assert.Equal(t, "result", f.clipboard())
}

func TestWriteBackWriteFailureRestores(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "text", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)

	f.mu.Lock()
	f.writeErr = errors.New("clipboard locked")
	f.mu.Unlock()

	err = cp.WriteBack(context.Background(), "result")
	var rerr *ReplaceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "write", rerr.Stage)
	assert.Zero(t, f.pastes)
}

func TestAbortRestoreDetectsConcurrentMutation(t *testing.T) {
	f := &fakeDesktop{clip: "snap", selection: "text", copyWorks: true}
	c, _ := newTestController(f, DefaultConfig())

	cp, err := c.CaptureSelection(context.Background())
	require.NoError(t, err)

	f.onWrite = func(f *fakeDesktop) {
		f.mu.Lock()
		f.clip = "someone else"
		f.mu.Unlock()
	}
	err = cp.AbortRestore()
	var rerr *RestoreError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, cp.Released())
}

func TestNewControllerDefaults(t *testing.T) {
	c := NewController(&fakeDesktop{}, Config{}, zap.NewNop().Sugar())
	assert.Equal(t, 3, c.cfg.Attempts)
	assert.Equal(t, 150*time.Millisecond, c.cfg.Interval)
}
