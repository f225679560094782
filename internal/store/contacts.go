// ABOUTME: Contact persistence, tag association and paginated search for SQLiteStore
// ABOUTME: Multi-statement writes run in one transaction; tags are grouped from normalized rows

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var contactColumnNames = []string{
	"id", "user_id", "name", "email", "phone", "country_code", "whatsapp_number",
	"company", "avatar_url", "notes", "created_at", "updated_at",
}

// contactColumns returns the contact columns qualified with alias.
func contactColumns(alias string) []string {
	cols := make([]string, len(contactColumnNames))
	for i, c := range contactColumnNames {
		cols[i] = alias + "." + c
	}
	return cols
}

// searchColumns are matched with a contains-pattern when a search term is given.
var searchColumns = []string{"name", "email", "phone", "whatsapp_number", "company"}

type contactRow struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	Name           string         `db:"name"`
	Email          sql.NullString `db:"email"`
	Phone          sql.NullString `db:"phone"`
	CountryCode    sql.NullString `db:"country_code"`
	WhatsappNumber sql.NullString `db:"whatsapp_number"`
	Company        sql.NullString `db:"company"`
	AvatarURL      sql.NullString `db:"avatar_url"`
	Notes          sql.NullString `db:"notes"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`
}

func (r *contactRow) toContact() (*Contact, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Contact{
		ID:             r.ID,
		OwnerID:        r.UserID,
		Name:           r.Name,
		Email:          stringPtr(r.Email),
		Phone:          stringPtr(r.Phone),
		CountryCode:    stringPtr(r.CountryCode),
		WhatsappNumber: stringPtr(r.WhatsappNumber),
		Company:        stringPtr(r.Company),
		AvatarURL:      stringPtr(r.AvatarURL),
		Notes:          stringPtr(r.Notes),
		Tags:           []ContactTag{},
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// contactTagRow is one (contact, tag) pair from the association table.
type contactTagRow struct {
	ContactID int64  `db:"contact_id"`
	TagID     int64  `db:"tag_id"`
	TagName   string `db:"tag_name"`
	TagColor  string `db:"tag_color"`
}

type patchField struct {
	column string
	value  Optional
}

func (p ContactPatch) fields() []patchField {
	return []patchField{
		{"name", p.Name},
		{"email", p.Email},
		{"phone", p.Phone},
		{"country_code", p.CountryCode},
		{"whatsapp_number", p.WhatsappNumber},
		{"company", p.Company},
		{"avatar_url", p.AvatarURL},
		{"notes", p.Notes},
	}
}

// CreateContact inserts a contact owned by ownerID and links it to tagIDs.
// The insert and the tag links commit together or not at all.
// Returns ErrValidation if any tag id does not belong to ownerID.
func (s *SQLiteStore) CreateContact(ctx context.Context, ownerID int64, fields ContactFields, tagIDs []int64) (*Contact, error) {
	const op = "create contact"
	if fields.Name == "" {
		return nil, validationError(op, "Name is required")
	}

	var contact *Contact
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		ids := uniqueIDs(tagIDs)
		if err := checkTagOwnership(ctx, tx, op, ownerID, ids); err != nil {
			return err
		}

		now := formatTime(time.Now())
		result, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (
				user_id, name, email, phone, country_code, whatsapp_number,
				company, avatar_url, notes, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ownerID,
			fields.Name,
			nullString(fields.Email),
			nullString(fields.Phone),
			nullString(fields.CountryCode),
			nullString(fields.WhatsappNumber),
			nullString(fields.Company),
			nullString(fields.AvatarURL),
			nullString(fields.Notes),
			now,
			now,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return validationError(op, "unknown user")
			}
			return fmt.Errorf("inserting contact: %w", err)
		}

		contactID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading inserted id: %w", err)
		}

		if err := linkTags(ctx, tx, contactID, ids, now); err != nil {
			return err
		}

		contact, err = getContact(ctx, tx, contactID, ownerID)
		return err
	})
	if err != nil {
		return nil, asStoreError(op, err)
	}

	s.logger.Debug("created contact", "id", contact.ID, "user_id", ownerID, "tags", len(contact.Tags))
	return contact, nil
}

// GetContact retrieves a contact with its tags.
// Returns ErrNotFound if the contact doesn't exist or isn't owned by ownerID.
func (s *SQLiteStore) GetContact(ctx context.Context, contactID, ownerID int64) (*Contact, error) {
	contact, err := getContact(ctx, s.db, contactID, ownerID)
	if err != nil {
		return nil, asStoreError("get contact", err)
	}
	return contact, nil
}

// ListContacts returns one page of ownerID's contacts ordered by name.
// Page values below 1 become 1; PerPage outside [1, MaxPerPage] becomes DefaultPerPage.
// Total counts every matching contact regardless of pagination.
func (s *SQLiteStore) ListContacts(ctx context.Context, params ListContactsParams) (*ContactPage, error) {
	const op = "list contacts"
	page, perPage := clampPage(params.Page, params.PerPage)
	filter := contactFilter(params)

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, storageError(op, fmt.Errorf("acquiring connection: %w", err))
	}
	defer conn.Close()

	countQuery, countArgs, err := sq.Select("COUNT(*)").
		From("contacts c").
		Where(filter).
		ToSql()
	if err != nil {
		return nil, storageError(op, fmt.Errorf("building count query: %w", err))
	}

	var total int
	if err := sqlx.GetContext(ctx, conn, &total, countQuery, countArgs...); err != nil {
		return nil, storageError(op, fmt.Errorf("counting contacts: %w", err))
	}

	pageQuery, pageArgs, err := sq.Select(contactColumns("c")...).
		From("contacts c").
		Where(filter).
		OrderBy("c.name", "c.id").
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return nil, storageError(op, fmt.Errorf("building page query: %w", err))
	}

	var rows []contactRow
	if err := sqlx.SelectContext(ctx, conn, &rows, pageQuery, pageArgs...); err != nil {
		return nil, storageError(op, fmt.Errorf("selecting contacts: %w", err))
	}

	contacts := make([]*Contact, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toContact()
		if err != nil {
			return nil, storageError(op, err)
		}
		contacts = append(contacts, c)
	}

	if err := attachTags(ctx, conn, contacts); err != nil {
		return nil, storageError(op, err)
	}

	return &ContactPage{
		Contacts:   contacts,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// maxPage keeps (page-1)*perPage from overflowing int for any perPage up to MaxPerPage.
const maxPage = math.MaxInt / MaxPerPage

// clampPage normalizes pagination input.
func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// contactFilter builds the WHERE clause shared by the count and page queries.
func contactFilter(params ListContactsParams) sq.And {
	filter := sq.And{sq.Eq{"c.user_id": params.OwnerID}}

	if params.Search != "" {
		pattern := likePattern(params.Search)
		match := sq.Or{}
		for _, col := range searchColumns {
			match = append(match, sq.Expr("c."+col+` LIKE ? ESCAPE '\'`, pattern))
		}
		filter = append(filter, match)
	}

	if params.TagID != 0 {
		filter = append(filter, sq.Expr(
			"EXISTS (SELECT 1 FROM contact_tags ct WHERE ct.contact_id = c.id AND ct.tag_id = ?)",
			params.TagID,
		))
	}

	return filter
}

// UpdateContact applies patch to a contact owned by ownerID.
// When tagIDs is non-nil the contact's tag set is replaced by it, even if empty;
// when nil the existing associations are kept.
// Returns ErrNotFound if the contact doesn't exist or isn't owned by ownerID.
func (s *SQLiteStore) UpdateContact(ctx context.Context, contactID, ownerID int64, patch ContactPatch, tagIDs *[]int64) (*Contact, error) {
	const op = "update contact"
	if patch.Name.Set && (patch.Name.Value == nil || strings.TrimSpace(*patch.Name.Value) == "") {
		return nil, validationError(op, "Name is required")
	}

	var contact *Contact
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists,
			`SELECT 1 FROM contacts WHERE id = ? AND user_id = ?`, contactID, ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundError(op, "Contact not found")
		}
		if err != nil {
			return fmt.Errorf("checking contact ownership: %w", err)
		}

		now := formatTime(time.Now())

		update := sq.Update("contacts").Where(sq.Eq{"id": contactID, "user_id": ownerID})
		changed := false
		for _, f := range patch.fields() {
			if f.value.Set {
				update = update.Set(f.column, f.value.value())
				changed = true
			}
		}
		if changed {
			query, args, err := update.Set("updated_at", now).ToSql()
			if err != nil {
				return fmt.Errorf("building update: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("updating contact: %w", err)
			}
		}

		if tagIDs != nil {
			ids := uniqueIDs(*tagIDs)
			if err := checkTagOwnership(ctx, tx, op, ownerID, ids); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM contact_tags WHERE contact_id = ?`, contactID); err != nil {
				return fmt.Errorf("clearing contact tags: %w", err)
			}
			if err := linkTags(ctx, tx, contactID, ids, now); err != nil {
				return err
			}
		}

		contact, err = getContact(ctx, tx, contactID, ownerID)
		return err
	})
	if err != nil {
		return nil, asStoreError(op, err)
	}

	s.logger.Debug("updated contact", "id", contactID, "user_id", ownerID, "tags_replaced", tagIDs != nil)
	return contact, nil
}

// DeleteContact removes a contact owned by ownerID together with its tag links.
// Returns false when no contact with that id belongs to ownerID.
func (s *SQLiteStore) DeleteContact(ctx context.Context, contactID, ownerID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND user_id = ?`, contactID, ownerID)
	if err != nil {
		return false, storageError("delete contact", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, storageError("delete contact", fmt.Errorf("getting rows affected: %w", err))
	}

	s.logger.Debug("deleted contact", "id", contactID, "user_id", ownerID, "deleted", n > 0)
	return n > 0, nil
}

// getContact loads a single owned contact and its tags using q.
func getContact(ctx context.Context, q sqlx.QueryerContext, contactID, ownerID int64) (*Contact, error) {
	query, args, err := sq.Select(contactColumns("c")...).
		From("contacts c").
		Where(sq.Eq{"c.id": contactID, "c.user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building contact query: %w", err)
	}

	var row contactRow
	err = sqlx.GetContext(ctx, q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError("get contact", "Contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying contact: %w", err)
	}

	contact, err := row.toContact()
	if err != nil {
		return nil, err
	}

	if err := attachTags(ctx, q, []*Contact{contact}); err != nil {
		return nil, err
	}
	return contact, nil
}

// attachTags loads the tags of every contact in one query returning one row per
// (contact, tag) pair and groups them by contact id. Contacts without tags keep
// an empty slice.
func attachTags(ctx context.Context, q sqlx.QueryerContext, contacts []*Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	ids := make([]int64, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}

	query, args, err := sq.Select(
		"ct.contact_id AS contact_id",
		"t.id AS tag_id",
		"t.name AS tag_name",
		"t.color AS tag_color",
	).
		From("contact_tags ct").
		Join("tags t ON t.id = ct.tag_id").
		Where(sq.Eq{"ct.contact_id": ids}).
		OrderBy("t.name", "t.id").
		ToSql()
	if err != nil {
		return fmt.Errorf("building tag query: %w", err)
	}

	var rows []contactTagRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return fmt.Errorf("querying contact tags: %w", err)
	}

	byContact := make(map[int64][]ContactTag, len(contacts))
	for _, r := range rows {
		byContact[r.ContactID] = append(byContact[r.ContactID], ContactTag{
			ID:    r.TagID,
			Name:  r.TagName,
			Color: r.TagColor,
		})
	}

	for _, c := range contacts {
		if tags, ok := byContact[c.ID]; ok {
			c.Tags = tags
		} else {
			c.Tags = []ContactTag{}
		}
	}
	return nil
}

// checkTagOwnership fails with ErrValidation unless every id is a tag of ownerID.
func checkTagOwnership(ctx context.Context, tx *sqlx.Tx, op string, ownerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Select("id").
		From("tags").
		Where(sq.Eq{"user_id": ownerID, "id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building tag ownership query: %w", err)
	}

	var owned []int64
	if err := tx.SelectContext(ctx, &owned, query, args...); err != nil {
		return fmt.Errorf("checking tag ownership: %w", err)
	}
	if len(owned) == len(ids) {
		return nil
	}

	known := make(map[int64]bool, len(owned))
	for _, id := range owned {
		known[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, fmt.Sprint(id))
		}
	}
	return validationError(op, "unknown tag ids: "+strings.Join(missing, ", "))
}

// linkTags inserts one association row per tag id.
func linkTags(ctx context.Context, tx *sqlx.Tx, contactID int64, ids []int64, now string) error {
	if len(ids) == 0 {
		return nil
	}

	insert := sq.Insert("contact_tags").Columns("contact_id", "tag_id", "created_at")
	for _, id := range ids {
		insert = insert.Values(contactID, id, now)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("building tag links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("linking tags: %w", err)
	}
	return nil
}

// uniqueIDs returns ids without duplicates, sorted ascending.
func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// asStoreError keeps typed store errors and wraps anything else as ErrStorage.
func asStoreError(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return storageError(op, err)
}
