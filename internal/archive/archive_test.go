package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugHTMLWritesLatestBadge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.html")
	d := NewDebugHTML(path)

	require.NoError(t, d.Archive(context.Background(), Badge{Base64: "first"}))
	require.NoError(t, d.Archive(context.Background(), Badge{Base64: "second"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `<body style='background: black'><img src="data:image/png;base64,second"></body>`, string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")
}

func TestDebugHTMLMissingDir(t *testing.T) {
	d := NewDebugHTML(filepath.Join(t.TempDir(), "nope", "debug.html"))
	assert.Error(t, d.Archive(context.Background(), Badge{Base64: "x"}))
}

type recordingArchiver struct {
	mu   sync.Mutex
	got  []Badge
	fail error
}

func (r *recordingArchiver) Archive(_ context.Context, b Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, b)
	return r.fail
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingArchiver{}
	bad := &recordingArchiver{fail: boom}

	err := Multi{bad, ok}.Archive(context.Background(), Badge{InvocationID: "id-1"})
	require.ErrorIs(t, err, boom)
	assert.Len(t, ok.got, 1, "a failing archiver must not stop the others")
	assert.Len(t, bad.got, 1)

	assert.NoError(t, Multi{}.Archive(context.Background(), Badge{}))
}

func TestImgTagAndObjectKey(t *testing.T) {
	assert.Equal(t, `<img src="data:image/png;base64,abc">`, ImgTag("abc"))
	assert.Equal(t, "badges/1234.png", ObjectKey("1234"))
}
