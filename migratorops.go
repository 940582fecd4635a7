package modelfactory

import (
	"context"
	"fmt"
)

// MarkApplied (⚠️ danger) is a manual operation that records versions in the
// version log without running them.
//
// You should NOT use this as part of normal operations, it exists to help
// devops/db-admin/sres interact with migration state.
//
// Ids that are not registered with the Migrator, or that are already
// applied, are skipped with a warning. It returns the ids that were marked.
func (m *Migrator) MarkApplied(ctx context.Context, ids ...string) ([]string, error) {
	appliedMap, err := m.appliedMap(ctx)
	if err != nil {
		return nil, err
	}
	var marked []string
	for _, id := range ids {
		if existing, ok := appliedMap[id]; ok {
			m.warn(ctx, "skipping previously applied version",
				LogField{"version", existing.Version},
				LogField{"applied_at", existing.AppliedAt},
			)
			continue
		}
		if _, ok := m.migrations[id]; !ok {
			m.warn(ctx, "skipping unknown version",
				LogField{"reason", "not registered"},
				LogField{"version", id},
			)
			continue
		}
		if err := m.Executor.Execute(ctx, m.Generator.Add(id)); err != nil {
			msg := "failed to mark version as applied"
			m.error(ctx, err, msg, LogField{"version", id})
			return marked, fmt.Errorf("%s: %w", msg, err)
		}
		// a repeated id in ids must only be added once
		appliedMap[id] = AppliedVersion{Version: id}
		marked = append(marked, id)
	}
	return marked, nil
}

// MarkAllApplied (⚠️ danger) is [Migrator.MarkApplied] for every registered
// version.
func (m *Migrator) MarkAllApplied(ctx context.Context) ([]string, error) {
	return m.MarkApplied(ctx, m.versions...)
}

// MarkUnapplied (⚠️ danger) is a manual operation that removes versions from
// the version log, so that the next [Migrator.Migrate] runs them again. The
// schema changes they made are not undone.
//
// You should NOT use this as part of normal operations, it exists to help
// devops/db-admin/sres interact with migration state.
//
// Unlike [Migrator.MarkApplied], ids do not need to be registered with the
// Migrator; any logged version can be removed. It returns the versions that
// were removed.
func (m *Migrator) MarkUnapplied(ctx context.Context, ids ...string) ([]AppliedVersion, error) {
	appliedMap, err := m.appliedMap(ctx)
	if err != nil {
		return nil, err
	}
	var removed []AppliedVersion
	for _, id := range ids {
		existing, ok := appliedMap[id]
		if !ok {
			m.warn(ctx, "skipping unknown version",
				LogField{"reason", "not applied"},
				LogField{"version", id},
			)
			continue
		}
		if err := m.Executor.Execute(ctx, m.Generator.Remove(id)); err != nil {
			msg := "failed to mark version as unapplied"
			m.error(ctx, err, msg, LogField{"version", id})
			return removed, fmt.Errorf("%s: %w", msg, err)
		}
		delete(appliedMap, id)
		removed = append(removed, existing)
	}
	return removed, nil
}

// MarkAllUnapplied (⚠️ danger) empties the version log and returns what it
// contained.
func (m *Migrator) MarkAllUnapplied(ctx context.Context) ([]AppliedVersion, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.Executor.Execute(ctx, m.Generator.CleanVersions()); err != nil {
		msg := "failed to clean version log"
		m.error(ctx, err, msg)
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	return applied, nil
}

func (m *Migrator) appliedMap(ctx context.Context) (map[string]AppliedVersion, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	appliedMap := make(map[string]AppliedVersion, len(applied))
	for _, version := range applied {
		appliedMap[version.Version] = version
	}
	return appliedMap, nil
}
