package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,COALESCE(photo_url,''),is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhotoURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The password is hashed
// with bcrypt before it touches the database; the same hash is later
// checked by both login and the e-sign confirmation gate.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?,?,?)",
		strings.TrimSpace(name), email, hash)
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile changes the display name and photo of a user. The
// email is the durable key and is never updated; callers that change
// the name must also run DocumentRepo.RenameUserSweep so the
// denormalized display names across document history follow.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, photoURL string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, photo_url=NULLIF(?,''), updated_at=NOW() WHERE id=?",
		strings.TrimSpace(name), strings.TrimSpace(photoURL), id)
	return err
}
