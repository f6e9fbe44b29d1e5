package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
)

func TestHandlesSingle(t *testing.T) {
	handles, err := Handles("@alice/", false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, handles)
}

func TestHandlesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handles.txt")
	content := "alice\n\n  @bob  \nhttps://www.instagram.com/carol/\nnot a handle!\nalice\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	log := logger.NewTestLogger()
	handles, err := Handles(path, true, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, handles)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestHandlesErrors(t *testing.T) {
	_, err := Handles(filepath.Join(t.TempDir(), "missing.txt"), true, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfigLoad))

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0644))
	_, err = Handles(empty, true, nil)
	assert.True(t, errs.IsKind(err, errs.KindConfigLoad))

	_, err = Handles("bad handle", false, nil)
	assert.True(t, errs.IsKind(err, errs.KindConfigLoad))
}
