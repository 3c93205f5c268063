package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/utils"
)

// Seed inserts the demo fixture when the database is empty: four
// users, two projects and four documents with reviewer lists and
// history. It is the startup fallback for a missing dataset: a
// populated users table disables it entirely, and it never touches
// existing rows.
func Seed(ctx context.Context, db *sql.DB, bcryptCost int) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("database: empty users table, loading seed fixture")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	users := []struct{ name, email, password string }{
		{"Alice Johnson", "alice.johnson@example.com", "password123"},
		{"Bob Manager", "bob.manager@example.com", "password456"},
		{"Charlie Lead", "charlie.lead@example.com", "password789"},
		{"David Chen", "david.chen@example.com", "password101"},
	}
	for _, u := range users {
		hash, err := utils.HashPassword(u.password, bcryptCost)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (name, email, password_hash) VALUES (?,?,?)",
			u.name, u.email, hash); err != nil {
			return err
		}
	}

	projects := []struct{ code, name, desc string }{
		{"STR-2023", "Structural Works", "Structural analysis deliverables and reports."},
		{"MEP-2023", "Mechanical & Electrical", "Mechanical blueprints and electrical schematics."},
	}
	for _, p := range projects {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO projects (project_code, name, description) VALUES (?,?,?)",
			p.code, p.name, p.desc); err != nil {
			return err
		}
	}

	type seedHistory struct {
		status  model.DocumentStatus
		date    string
		name    string
		email   string
		comment string
	}
	type seedDoc struct {
		name, docType       string
		uploaderName, email string
		uploaded            string
		status              model.DocumentStatus
		project             string
		reviewers           []model.Reviewer
		history             []seedHistory
	}

	docs := []seedDoc{
		{
			name: "Structural_Analysis_Report_Q3.pdf", docType: "PDF",
			uploaderName: "Alice Johnson", email: "alice.johnson@example.com",
			uploaded: "2023-10-26T10:00:00Z", status: model.StatusApproved, project: "STR-2023",
			reviewers: []model.Reviewer{
				{Email: "bob.manager@example.com", Role: model.RoleApprover},
				{Email: "charlie.lead@example.com", Role: model.RoleViewer},
			},
			history: []seedHistory{
				{model.StatusInReview, "2023-10-26T10:05:00Z", "Alice Johnson", "alice.johnson@example.com", "Initial review request."},
				{model.StatusApproved, "2023-10-27T14:30:00Z", "Bob Manager", "bob.manager@example.com", "Looks good, approved."},
			},
		},
		{
			name: "Mechanical_Blueprint_A113.dwg", docType: "DWG",
			uploaderName: "David Chen", email: "david.chen@example.com",
			uploaded: "2023-10-28T11:20:00Z", status: model.StatusInReview, project: "MEP-2023",
			reviewers: []model.Reviewer{
				{Email: "alice.johnson@example.com", Role: model.RoleCommenter},
				{Email: "charlie.lead@example.com", Role: model.RoleApprover},
			},
			history: []seedHistory{
				{model.StatusInReview, "2023-10-28T11:25:00Z", "David Chen", "david.chen@example.com", "Please review the updated schematics."},
			},
		},
		{
			name: "Electrical_Schematics_Rev4.docx", docType: "DOCX",
			uploaderName: "Bob Manager", email: "bob.manager@example.com",
			uploaded: "2023-10-29T09:00:00Z", status: model.StatusRejected, project: "MEP-2023",
			reviewers: []model.Reviewer{
				{Email: "david.chen@example.com", Role: model.RoleApprover},
			},
			history: []seedHistory{
				{model.StatusInReview, "2023-10-29T09:05:00Z", "Bob Manager", "bob.manager@example.com", "Final check before production."},
				{model.StatusRejected, "2023-10-29T16:45:00Z", "David Chen", "david.chen@example.com", "Incorrect voltage specifications on page 3. Please revise."},
			},
		},
		{
			name: "Project_Timeline_Gantt_Chart.xlsx", docType: "XLSX",
			uploaderName: "Charlie Lead", email: "charlie.lead@example.com",
			uploaded: "2023-10-30T15:00:00Z", status: model.StatusInReview, project: "STR-2023",
			reviewers: []model.Reviewer{
				{Email: "alice.johnson@example.com", Role: model.RoleViewer},
				{Email: "bob.manager@example.com", Role: model.RoleApprover},
			},
			history: []seedHistory{
				{model.StatusInReview, "2023-10-30T15:05:00Z", "Charlie Lead", "charlie.lead@example.com", "Review of project milestones."},
			},
		},
	}

	for _, d := range docs {
		uploaded, err := time.Parse(time.RFC3339, d.uploaded)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO documents (name, doc_type, uploaded_by_name, uploaded_by_email, upload_date,
				status, project_code, version, is_latest)
			 VALUES (?,?,?,?,?,?,?,1,1)`,
			d.name, d.docType, d.uploaderName, d.email, uploaded.UTC(), string(d.status), d.project)
		if err != nil {
			return err
		}
		docID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, rv := range d.reviewers {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO document_reviewers (document_id, email, role) VALUES (?,?,?)",
				docID, rv.Email, string(rv.Role)); err != nil {
				return err
			}
		}
		for _, h := range d.history {
			at, err := time.Parse(time.RFC3339, h.date)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO document_history (document_id, status, entry_date, user_name, user_email, comment, version) VALUES (?,?,?,?,?,?,1)",
				docID, string(h.status), at.UTC(), h.name, h.email, h.comment); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
