package repository

import (
	"context"
	"strings"
	"time"
)

// DocumentSearchQuery defines filters & pagination for the global
// document search. Empty filters are ignored. LatestOnly restricts
// results to current revisions.
type DocumentSearchQuery struct {
	Text       string // matches name, type or uploader name
	Project    string // matches project code
	Status     string // exact status filter
	LatestOnly bool
	Page       int
	PageSize   int
}

// DocumentRow is the flat search result shape returned to clients.
type DocumentRow struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	UploadedBy  string `json:"uploaded_by"`
	Status      string `json:"status"`
	ProjectCode string `json:"project_code,omitempty"`
	Version     int    `json:"version"`
	IsLatest    bool   `json:"is_latest"`
	UploadDate  string `json:"upload_date"`
}

// Search runs a LIKE-based filter over the documents visible to the
// user and returns a page of rows plus the total match count.
func (r *DocumentRepo) Search(ctx context.Context, email string, q DocumentSearchQuery) ([]DocumentRow, int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	where := []string{`(d.uploaded_by_email=? OR EXISTS (
		SELECT 1 FROM document_reviewers rv WHERE rv.document_id=d.id AND rv.email=?))`}
	args := []any{email, email}

	if q.LatestOnly {
		where = append(where, "d.is_latest=1")
	}
	if t := strings.TrimSpace(q.Text); t != "" {
		like := "%" + strings.ToLower(t) + "%"
		where = append(where, "(LOWER(d.name) LIKE ? OR LOWER(d.doc_type) LIKE ? OR LOWER(d.uploaded_by_name) LIKE ?)")
		args = append(args, like, like, like)
	}
	if p := strings.TrimSpace(q.Project); p != "" {
		where = append(where, "LOWER(COALESCE(d.project_code,'')) LIKE ?")
		args = append(args, "%"+strings.ToLower(p)+"%")
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		where = append(where, "d.status=?")
		args = append(args, s)
	}

	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents d WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT d.id, d.name, d.doc_type, d.uploaded_by_name, d.status,
			COALESCE(d.project_code,''), d.version, d.is_latest, d.upload_date
		FROM documents d
		WHERE ` + cond + `
		ORDER BY d.upload_date DESC, d.id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []DocumentRow{}
	for rows.Next() {
		var row DocumentRow
		var uploaded time.Time
		if err := rows.Scan(&row.ID, &row.Name, &row.Type, &row.UploadedBy, &row.Status,
			&row.ProjectCode, &row.Version, &row.IsLatest, &uploaded); err != nil {
			return nil, 0, err
		}
		row.UploadDate = uploaded.UTC().Format(time.RFC3339)
		out = append(out, row)
	}
	return out, total, rows.Err()
}
