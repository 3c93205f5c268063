package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/engiflow/engiflow/internal/model"
)

type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// Create inserts a project. The project code must be unique ignoring
// case; uniqueness is backed by a generated lower-cased unique index,
// so two concurrent creations of "PNX-001" and "pnx-001" cannot both
// succeed. Duplicate violations map to ErrProjectCodeExists.
func (r *ProjectRepo) Create(ctx context.Context, code, name, description string) (model.Project, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (project_code, name, description) VALUES (?,?,?)",
		code, name, description)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Project{}, ErrProjectCodeExists
		}
		return model.Project{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Project{}, err
	}
	return r.getByID(ctx, uint64(id))
}

func (r *ProjectRepo) getByID(ctx context.Context, id uint64) (model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, project_code, name, description, last_updated FROM projects WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.ProjectCode, &p.Name, &p.Description, &p.LastUpdated)
	return p, err
}

// GetByCode fetches a project by its code, ignoring case.
func (r *ProjectRepo) GetByCode(ctx context.Context, code string) (model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, project_code, name, description, last_updated FROM projects WHERE LOWER(project_code)=LOWER(?) LIMIT 1",
		strings.TrimSpace(code)).Scan(&p.ID, &p.ProjectCode, &p.Name, &p.Description, &p.LastUpdated)
	return p, err
}

// List returns all projects, most recently updated first.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, project_code, name, description, last_updated FROM projects ORDER BY last_updated DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.ProjectCode, &p.Name, &p.Description, &p.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Touch bumps last_updated, used when documents are added under the
// project.
func (r *ProjectRepo) Touch(ctx context.Context, code string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE projects SET last_updated=? WHERE LOWER(project_code)=LOWER(?)",
		at.UTC(), strings.TrimSpace(code))
	return err
}
