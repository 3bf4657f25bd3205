package episode

import (
	"context"
	"fmt"
	"os"
	"strings"

	"moltcast/internal/fileutil"
	"moltcast/internal/ledger"
	"moltcast/internal/logging"
	"moltcast/internal/services"
)

// ConfirmResult reports the ledger changes made by Confirm.
type ConfirmResult struct {
	Episode int
	Marked  int
	// Reassigned lists ids previously attributed to another episode.
	Reassigned []string
}

// Confirm records every post of episode n as covered by n. The audio must be
// recorded first. Confirming again rewrites the same entries.
func (m *Manager) Confirm(ctx context.Context, n int, led *ledger.Ledger) (ConfirmResult, error) {
	if led == nil {
		return ConfirmResult{}, errNoLedger("confirm")
	}
	logger := m.loggerFor(ctx, n, "confirm")
	if !fileutil.NonEmptyFile(m.layout.AudioPath(n)) {
		return ConfirmResult{}, services.Wrap(services.ErrPrecondition, "episode", "confirm",
			fmt.Sprintf("episode %d not yet recorded: add a non-empty %s to %s before confirming", n, AudioFile, m.layout.Dir(n)), nil)
	}
	meta, err := m.layout.LoadMetadata(n)
	if err != nil {
		return ConfirmResult{}, err
	}

	var reassigned []string
	for _, id := range meta.PostIDs {
		if owner, ok := led.Owner(id); ok && owner != n {
			reassigned = append(reassigned, id)
		}
	}
	if len(reassigned) > 0 {
		logging.WarnWithContext(logger, "posts already covered by another episode", "ledger_reassigned",
			logging.Strings("post_ids", reassigned),
			logging.String(logging.FieldErrorHint, "check earlier episodes for duplicate material"),
			logging.String(logging.FieldImpact, "ledger now attributes these posts to this episode"))
	}

	if err := led.MarkCovered(n, meta.PostIDs); err != nil {
		return ConfirmResult{}, fmt.Errorf("update ledger: %w", err)
	}
	logger.Info("episode confirmed", logging.Int("posts_marked", len(meta.PostIDs)))
	return ConfirmResult{Episode: n, Marked: len(meta.PostIDs), Reassigned: reassigned}, nil
}

// DeleteResult reports what Delete removed.
type DeleteResult struct {
	Episode          int
	Unmarked         []string
	RemovedPublished bool
}

// Delete removes episode n. Covered posts block deletion unless force is
// set; with force the ledger entries go first, then the episode directory,
// then any published output.
func (m *Manager) Delete(ctx context.Context, n int, force bool, led *ledger.Ledger) (DeleteResult, error) {
	if led == nil {
		return DeleteResult{}, errNoLedger("delete")
	}
	logger := m.loggerFor(ctx, n, "delete")
	dir := m.layout.Dir(n)
	if !fileutil.IsDir(dir) {
		return DeleteResult{}, services.Wrap(services.ErrNotFound, "episode", "delete",
			fmt.Sprintf("episode %d not found", n), nil)
	}

	var postIDs []string
	if fileutil.Exists(m.layout.MetadataPath(n)) {
		meta, err := m.layout.LoadMetadata(n)
		if err != nil {
			return DeleteResult{}, err
		}
		postIDs = meta.PostIDs
	}

	covered := led.Covered(postIDs)
	if len(covered) > 0 && !force {
		return DeleteResult{}, services.Wrap(services.ErrConflict, "episode", "delete",
			fmt.Sprintf("posts already marked covered; rerun with --force to remove them from the ledger (affected: %s)",
				strings.Join(covered, ", ")), nil)
	}

	result := DeleteResult{Episode: n}
	if len(covered) > 0 {
		if err := led.Unmark(covered); err != nil {
			return DeleteResult{}, fmt.Errorf("update ledger: %w", err)
		}
		result.Unmarked = covered
		logger.Info("removed posts from ledger", logging.Int("posts_unmarked", len(covered)))
	}

	if err := os.RemoveAll(dir); err != nil {
		return result, fmt.Errorf("remove episode directory: %w", err)
	}
	published := m.layout.PublishedDir(n)
	if fileutil.Exists(published) {
		if err := os.RemoveAll(published); err != nil {
			return result, fmt.Errorf("remove published directory: %w", err)
		}
		result.RemovedPublished = true
		logging.WarnWithContext(logger, "published output removed", "published_episode_deleted",
			logging.String("dir", published),
			logging.String(logging.FieldErrorHint, "publish another episode to regenerate docs/index.html and feed.xml"),
			logging.String(logging.FieldImpact, "site index and feed still list this episode"))
	}
	logger.Info("episode deleted", logging.Bool("published_removed", result.RemovedPublished))
	return result, nil
}

func errNoLedger(operation string) error {
	return services.Wrap(services.ErrValidation, "episode", operation, "ledger is required", nil)
}
