package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roksva123/kinerja-planner/internal/model"
)

func (r *PostgresRepo) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &email, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	u.Email = email.String
	return u, nil
}

func (r *PostgresRepo) UpsertUser(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO users (id, name, email, role)
        VALUES ($1,$2,NULLIF($3, ''),$4)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            role = EXCLUDED.role
    `, u.ID, u.Name, u.Email, u.Role)
	return err
}
