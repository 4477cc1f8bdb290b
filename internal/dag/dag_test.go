package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albe2669/recipes/internal/pipeline"
)

func TestFileOpts(t *testing.T) {
	assert.Nil(t, fileOpts(0))

	opts := fileOpts(0o755)
	require.Len(t, opts, 1)
	assert.Equal(t, 0o755, opts[0].Permissions)
}

func TestFileOptsDropsTypeBits(t *testing.T) {
	opts := fileOpts(0o4755 | 0o20000000000)
	require.Len(t, opts, 1)
	assert.Equal(t, 0o755, opts[0].Permissions)
}

func TestExecOptsRedirectsStdout(t *testing.T) {
	assert.Nil(t, execOpts(pipeline.Op{Kind: pipeline.OpExec, Args: []string{"true"}}))

	opts := execOpts(pipeline.Op{Kind: pipeline.OpExec, Args: []string{"echo"}, Out: "/app/out/main.tex"})
	require.Len(t, opts, 1)
	assert.Equal(t, "/app/out/main.tex", opts[0].RedirectStdout)
}
