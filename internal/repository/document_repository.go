package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/review"
)

// DocumentRepo provides persistence for documents, their reviewer
// lists and their append-only history. The mutating operations that
// must be atomic (creating a new revision, committing a confirmed
// action) run inside a single transaction with the affected rows
// locked FOR UPDATE, so the read–validate–append–commit sequence is
// serialized per document and per logical group. History rows are
// only ever inserted, never updated or deleted; the single exception
// is the denormalized display-name repair in RenameUserSweep.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo returns a new DocumentRepo bound to the given database.
func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions across repositories.
func (r *DocumentRepo) DB() *sql.DB { return r.db }

// dbtx is satisfied by both *sql.DB and *sql.Tx so the row loaders can
// run inside or outside a transaction.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const docColumns = `id, name, doc_type, uploaded_by_name, uploaded_by_email, upload_date,
	status, COALESCE(project_code,''), version, is_latest, COALESCE(file_url,''),
	reminder_date, COALESCE(scratchpad,''), COALESCE(access_password_hash,'')`

func scanDocument(scan func(dest ...any) error) (model.Document, error) {
	var (
		d        model.Document
		status   string
		reminder sql.NullTime
	)
	err := scan(&d.ID, &d.Name, &d.Type, &d.UploadedByName, &d.UploadedByEmail, &d.UploadDate,
		&status, &d.ProjectCode, &d.Version, &d.IsLatest, &d.FileURL, &reminder, &d.Scratchpad,
		&d.AccessHash)
	if err != nil {
		return model.Document{}, err
	}
	d.Status = model.DocumentStatus(status)
	if reminder.Valid {
		t := reminder.Time
		d.ReminderDate = &t
	}
	return d, nil
}

func loadReviewers(ctx context.Context, q dbtx, docID uint64) ([]model.Reviewer, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT email, role FROM document_reviewers WHERE document_id=? ORDER BY id", docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reviewer{}
	for rows.Next() {
		var rv model.Reviewer
		var role string
		if err := rows.Scan(&rv.Email, &role); err != nil {
			return nil, err
		}
		rv.Role = model.ReviewerRole(role)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func loadHistory(ctx context.Context, q dbtx, docID uint64) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, status, entry_date, user_name, user_email, comment, version FROM document_history WHERE document_id=? ORDER BY id", docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.HistoryEntry{}
	for rows.Next() {
		var h model.HistoryEntry
		var status string
		if err := rows.Scan(&h.ID, &status, &h.Date, &h.UserName, &h.UserEmail, &h.Comment, &h.Version); err != nil {
			return nil, err
		}
		h.Status = model.DocumentStatus(status)
		out = append(out, h)
	}
	return out, rows.Err()
}

func getDocument(ctx context.Context, q dbtx, id uint64, forUpdate bool) (model.Document, error) {
	query := "SELECT " + docColumns + " FROM documents WHERE id=? LIMIT 1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	d, err := scanDocument(q.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Document{}, ErrDocumentNotFound
		}
		return model.Document{}, err
	}
	if d.Reviewers, err = loadReviewers(ctx, q, id); err != nil {
		return model.Document{}, err
	}
	if d.History, err = loadHistory(ctx, q, id); err != nil {
		return model.Document{}, err
	}
	return d, nil
}

// GetByID loads a full document with its reviewer list and history.
func (r *DocumentRepo) GetByID(ctx context.Context, id uint64) (model.Document, error) {
	return getDocument(ctx, r.db, id, false)
}

// GroupOf returns all revisions of the document's logical group
// (same name and project code), newest version first. Reviewer lists
// and history are not loaded; the rows back the revision picker.
func (r *DocumentRepo) GroupOf(ctx context.Context, name, projectCode string) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+docColumns+" FROM documents WHERE name=? AND COALESCE(project_code,'')=? ORDER BY version DESC",
		name, projectCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListVisible returns the latest revision of every document the user
// participates in, either as uploader or as reviewer, newest upload
// first. Superseded revisions stay reachable through GroupOf only.
func (r *DocumentRepo) ListVisible(ctx context.Context, email string) ([]model.Document, error) {
	return r.list(ctx, email, "")
}

// ListByProject is ListVisible narrowed to one project code.
func (r *DocumentRepo) ListByProject(ctx context.Context, email, projectCode string) ([]model.Document, error) {
	return r.list(ctx, email, projectCode)
}

func (r *DocumentRepo) list(ctx context.Context, email, projectCode string) ([]model.Document, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `SELECT ` + docColumns + ` FROM documents d
		WHERE d.is_latest=1
		AND (d.uploaded_by_email=? OR EXISTS (
			SELECT 1 FROM document_reviewers rv WHERE rv.document_id=d.id AND rv.email=?))`
	args := []any{email, email}
	if projectCode != "" {
		query += " AND LOWER(COALESCE(d.project_code,''))=LOWER(?)"
		args = append(args, projectCode)
	}
	query += " ORDER BY d.upload_date DESC, d.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		if d.Reviewers, err = loadReviewers(ctx, r.db, d.ID); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateVersion inserts a new revision of a logical document in one
// transaction: the group's rows are locked, the next version number
// is computed from the locked rows, superseded revisions lose their
// is_latest flag, and the new document is inserted together with its
// reviewer list and the initial history entry. Two concurrent
// uploads of the same (name, project) therefore always produce
// consecutive versions.
func (r *DocumentRepo) CreateVersion(ctx context.Context, meta review.NewDocument, uploader model.User, now time.Time) (model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Document{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// lock the logical group and collect existing versions
	rows, err := tx.QueryContext(ctx,
		"SELECT id, version FROM documents WHERE name=? AND COALESCE(project_code,'')=? FOR UPDATE",
		meta.Name, meta.ProjectCode)
	if err != nil {
		return model.Document{}, err
	}
	group := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Version); err != nil {
			rows.Close()
			return model.Document{}, err
		}
		group = append(group, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Document{}, err
	}

	doc := review.NewRevision(meta, uploader, group, now)

	if len(group) > 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE documents SET is_latest=0 WHERE name=? AND COALESCE(project_code,'')=?",
			meta.Name, meta.ProjectCode); err != nil {
			return model.Document{}, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (name, doc_type, uploaded_by_name, uploaded_by_email, upload_date,
			status, project_code, version, is_latest, file_url, access_password_hash)
		 VALUES (?,?,?,?,?,?,NULLIF(?,''),?,1,NULLIF(?,''),NULLIF(?,''))`,
		doc.Name, doc.Type, doc.UploadedByName, doc.UploadedByEmail, doc.UploadDate.UTC(),
		string(doc.Status), doc.ProjectCode, doc.Version, doc.FileURL, doc.AccessHash)
	if err != nil {
		return model.Document{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Document{}, err
	}
	doc.ID = uint64(id)

	for _, rv := range doc.Reviewers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_reviewers (document_id, email, role) VALUES (?,?,?)",
			doc.ID, strings.ToLower(strings.TrimSpace(rv.Email)), string(rv.Role)); err != nil {
			return model.Document{}, err
		}
	}

	if err := insertHistoryTx(ctx, tx, doc.ID, doc.History[0]); err != nil {
		return model.Document{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Document{}, err
	}
	committed = true
	return doc, nil
}

func insertHistoryTx(ctx context.Context, q dbtx, docID uint64, h model.HistoryEntry) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO document_history (document_id, status, entry_date, user_name, user_email, comment, version) VALUES (?,?,?,?,?,?,?)",
		docID, string(h.Status), h.Date.UTC(), h.UserName, h.UserEmail, h.Comment, h.Version)
	return err
}

// CommitStaged applies a confirmed e-sign action inside one
// transaction. The document row is locked and reloaded, the staged
// action is re-validated against the fresh state (defense in depth:
// the gate already validated at staging time), and the status update
// plus history append land atomically or not at all.
func (r *DocumentRepo) CommitStaged(ctx context.Context, action review.StagedAction, actor model.User, now time.Time) (model.Document, model.HistoryEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Document{}, model.HistoryEntry{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	doc, err := getDocument(ctx, tx, action.DocumentID, true)
	if err != nil {
		return model.Document{}, model.HistoryEntry{}, err
	}

	entry, err := action.Commit(&doc, actor, now)
	if err != nil {
		return model.Document{}, model.HistoryEntry{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET status=? WHERE id=?", string(doc.Status), doc.ID); err != nil {
		return model.Document{}, model.HistoryEntry{}, err
	}
	if err := insertHistoryTx(ctx, tx, doc.ID, entry); err != nil {
		return model.Document{}, model.HistoryEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Document{}, model.HistoryEntry{}, err
	}
	committed = true
	return doc, entry, nil
}

// RenameUserSweep repairs the denormalized display names after a
// profile rename: the uploader name on the user's documents and the
// user_name of history entries attributable to them (matched by
// durable email AND the old display name). Status, dates, comments
// and versions are never touched.
func (r *DocumentRepo) RenameUserSweep(ctx context.Context, email, oldName, newName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := r.db.ExecContext(ctx,
		"UPDATE documents SET uploaded_by_name=? WHERE uploaded_by_email=?", newName, email); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE document_history SET user_name=? WHERE user_email=? AND user_name=?",
		newName, email, oldName)
	return err
}

// SetReminder stores or clears the follow-up reminder date.
func (r *DocumentRepo) SetReminder(ctx context.Context, id uint64, date *time.Time) error {
	var v any
	if date != nil {
		v = date.UTC()
	}
	res, err := r.db.ExecContext(ctx, "UPDATE documents SET reminder_date=? WHERE id=?", v, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateScratchpad replaces the shared scratchpad content of a
// document. The scratchpad is collaborative free text, not part of
// the audit trail.
func (r *DocumentRepo) UpdateScratchpad(ctx context.Context, id uint64, content string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE documents SET scratchpad=? WHERE id=?", content, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// StatusCounts aggregates the user's visible latest documents by
// status for the dashboard.
func (r *DocumentRepo) StatusCounts(ctx context.Context, email string) (map[model.DocumentStatus]int, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.status, COUNT(*) FROM documents d
		 WHERE d.is_latest=1
		 AND (d.uploaded_by_email=? OR EXISTS (
			SELECT 1 FROM document_reviewers rv WHERE rv.document_id=d.id AND rv.email=?))
		 GROUP BY d.status`, email, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.DocumentStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.DocumentStatus(status)] = n
	}
	return out, rows.Err()
}
