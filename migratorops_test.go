package modelfactory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestMarkApplied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, exec := newFakeMigrator(t)
	exec.applied = []string{"v1"}
	m.Version("v1", createTable("a")).
		Version("v2", createTable("b")).
		Version("v3", createTable("c"))

	// v1 is already applied, v4 is not registered, v2 is repeated.
	marked, err := m.MarkApplied(ctx, "v1", "v2", "v4", "v2")
	assert.Nil(t, err)
	check.Equal(t, []string{"v2"}, marked)
	check.Equal(t, []string{"v1", "v2"}, exec.applied)

	// Only v3 is left to run.
	assert.Nil(t, m.Migrate(ctx))
	check.Equal(t, []string{"create c"}, exec.ddlOnly())
}

func TestMarkAllApplied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, exec := newFakeMigrator(t)
	m.Version("v1", createTable("a")).Version("v2", createTable("b"))
	marked, err := m.MarkAllApplied(ctx)
	assert.Nil(t, err)
	check.Equal(t, []string{"v1", "v2"}, marked)
	assert.Nil(t, m.Migrate(ctx))
	check.Equal(t, 0, len(exec.ddlOnly()))
}

func TestMarkAppliedStopsAtFirstError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, exec := newFakeMigrator(t)
	exec.failOn = "add v2"
	m.Version("v1", createTable("a")).Version("v2", createTable("b"))
	marked, err := m.MarkAllApplied(ctx)
	check.True(t, errors.Is(err, errBoom))
	check.Equal(t, []string{"v1"}, marked)
}

func TestMarkUnapplied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, exec := newFakeMigrator(t)
	m.Version("v1", createTable("a")).Version("v2", createTable("b"))
	assert.Nil(t, m.Migrate(ctx))
	exec.applied = append(exec.applied, "unregistered")

	// Unregistered versions can be removed, unknown ones are skipped.
	removed, err := m.MarkUnapplied(ctx, "v2", "unregistered", "missing")
	assert.Nil(t, err)
	assert.Equal(t, 2, len(removed))
	check.Equal(t, "v2", removed[0].Version)
	check.Equal(t, "unregistered", removed[1].Version)
	check.Equal(t, []string{"v1"}, exec.applied)

	// v2 runs again; its schema changes were never undone.
	assert.Nil(t, m.Migrate(ctx))
	check.Equal(t, []string{"create a", "create b", "create b"}, exec.ddlOnly())
}

func TestMarkAllUnapplied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, exec := newFakeMigrator(t)
	m.Version("v1", createTable("a")).Version("v2", createTable("b"))
	assert.Nil(t, m.Migrate(ctx))

	removed, err := m.MarkAllUnapplied(ctx)
	assert.Nil(t, err)
	check.Equal(t, 2, len(removed))
	check.Equal(t, 0, len(exec.applied))

	plan, err := m.Plan(ctx)
	assert.Nil(t, err)
	check.Equal(t, []string{"v1", "v2"}, plan)
}
