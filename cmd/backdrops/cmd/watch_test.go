package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/backdrops/internal/identifier"
)

func TestWatchCmd_InitialPassThenStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "init")
	writeFolder(t, env.primary, "sunset", `{}`)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cmd := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--config", env.config, "watch", "--metrics-addr", "127.0.0.1:0"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, stdout.String(), "Watching")
	assert.Contains(t, stderr.String(), "Catalog updated: 1 added")
	assert.Contains(t, env.catalog(t).Backgrounds, identifier.ID("sunset"))
}
