package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Commands(t *testing.T) {
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "admin.db")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"seed-categories", "--database-url", dsn}, &out))
	assert.Contains(t, out.String(), "added 4 categories")

	out.Reset()
	require.NoError(t, run(ctx, []string{"seed-categories", "--database-url", dsn}, &out))
	assert.Contains(t, out.String(), "added 0 categories")

	out.Reset()
	require.NoError(t, run(ctx, []string{
		"create-operator", "--database-url", dsn,
		"--email", "root@resto.id", "--password", "secret1", "--role", "superadmin",
	}, &out))
	assert.Contains(t, out.String(), "<root@resto.id> role=superadmin")

	out.Reset()
	require.NoError(t, run(ctx, []string{
		"create-operator", "--database-url", dsn,
		"--email", "root@resto.id", "--password", "secret1", "--role", "admin",
	}, &out))
	assert.Contains(t, out.String(), "role=admin")

	out.Reset()
	require.NoError(t, run(ctx, []string{
		"create-operator", "--database-url", dsn,
		"--email", "  spaced@resto.id ", "--password", "secret1",
	}, &out))
	require.NoError(t, run(ctx, []string{
		"create-operator", "--database-url", dsn,
		"--email", " spaced@resto.id", "--password", "secret1", "--role", "superadmin",
	}, &out))
	assert.Contains(t, out.String(), "<spaced@resto.id> role=superadmin")

	out.Reset()
	require.NoError(t, run(ctx, []string{
		"create-account", "--database-url", dsn,
		"--email", "guest@resto.id", "--password", "secret1",
	}, &out))
	assert.Contains(t, out.String(), "<guest@resto.id>")
	assert.Error(t, run(ctx, []string{
		"create-account", "--database-url", dsn,
		"--email", "guest@resto.id", "--password", "secret1",
	}, &out))

	out.Reset()
	require.NoError(t, run(ctx, []string{"revoke-sessions", "--database-url", dsn, "--email", "guest@resto.id"}, &out))
	assert.Contains(t, out.String(), "revoked sessions of <guest@resto.id>")
	assert.Error(t, run(ctx, []string{"revoke-sessions", "--database-url", dsn, "--email", "ghost@resto.id"}, &out))

	out.Reset()
	require.NoError(t, run(ctx, []string{"list-operators", "--database-url", dsn}, &out))
	assert.Contains(t, out.String(), "root@resto.id\tadmin\tlast_login=never")
	assert.NotContains(t, out.String(), "guest@resto.id")

	out.Reset()
	require.NoError(t, run(ctx, []string{"migrate-categories", "--database-url", dsn}, &out))
	assert.Contains(t, out.String(), "migrated 0 categories")
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, run(ctx, nil, &out))
	assert.Error(t, run(ctx, []string{"drop-everything"}, &out))
	assert.Error(t, run(ctx, []string{"seed-categories", "--database-url", ""}, &out))
	assert.Error(t, run(ctx, []string{"create-operator", "--database-url", "sqlite::memory:", "--email", "bad"}, &out))
}
