// ABOUTME: Per-user tag persistence for SQLiteStore
// ABOUTME: Tag names are unique per owner; every statement is scoped by user_id

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const tagColumns = `id, user_id, name, color, created_at, updated_at`

type tagRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r *tagRow) toTag() (*Tag, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Tag{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Name:      r.Name,
		Color:     r.Color,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// CreateTag creates a tag for ownerID. A nil or empty color selects DefaultTagColor.
// Returns ErrConflict if the owner already has a tag with that name.
func (s *SQLiteStore) CreateTag(ctx context.Context, ownerID int64, name string, color *string) (*Tag, error) {
	if name == "" {
		return nil, validationError("create tag", "Name is required")
	}

	effective := DefaultTagColor
	if color != nil && *color != "" {
		effective = *color
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (user_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ownerID, name, effective, formatTime(now), formatTime(now),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, conflictError("create tag", "Tag with this name already exists")
		}
		if isForeignKeyError(err) {
			return nil, validationError("create tag", "unknown user")
		}
		return nil, storageError("create tag", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageError("create tag", fmt.Errorf("reading inserted id: %w", err))
	}

	s.logger.Debug("created tag", "id", id, "user_id", ownerID)
	return &Tag{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Color:     effective,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// ListTags returns every tag of ownerID ordered by name.
func (s *SQLiteStore) ListTags(ctx context.Context, ownerID int64) ([]*Tag, error) {
	var rows []tagRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, storageError("list tags", err)
	}

	tags := make([]*Tag, 0, len(rows))
	for i := range rows {
		tag, err := rows[i].toTag()
		if err != nil {
			return nil, storageError("list tags", err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// UpdateTag changes the supplied fields of a tag owned by ownerID.
// It returns false without error when neither field is supplied or when no
// tag with that id belongs to ownerID. An empty color resets to DefaultTagColor.
func (s *SQLiteStore) UpdateTag(ctx context.Context, tagID, ownerID int64, name, color *string) (bool, error) {
	if name == nil && color == nil {
		return false, nil
	}
	if name != nil && *name == "" {
		return false, validationError("update tag", "Name cannot be empty")
	}

	update := sq.Update("tags").
		Set("updated_at", formatTime(time.Now())).
		Where(sq.Eq{"id": tagID, "user_id": ownerID})
	if name != nil {
		update = update.Set("name", *name)
	}
	if color != nil {
		effective := *color
		if effective == "" {
			effective = DefaultTagColor
		}
		update = update.Set("color", effective)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return false, storageError("update tag", fmt.Errorf("building query: %w", err))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return false, conflictError("update tag", "Tag with this name already exists")
		}
		return false, storageError("update tag", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, storageError("update tag", fmt.Errorf("getting rows affected: %w", err))
	}

	s.logger.Debug("updated tag", "id", tagID, "user_id", ownerID, "matched", n > 0)
	return n > 0, nil
}

// DeleteTag removes a tag owned by ownerID. Its contact associations are removed
// by cascade; the contacts themselves are kept.
// Returns false when no tag with that id belongs to ownerID.
func (s *SQLiteStore) DeleteTag(ctx context.Context, tagID, ownerID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, tagID, ownerID)
	if err != nil {
		return false, storageError("delete tag", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, storageError("delete tag", fmt.Errorf("getting rows affected: %w", err))
	}

	s.logger.Debug("deleted tag", "id", tagID, "user_id", ownerID, "deleted", n > 0)
	return n > 0, nil
}
