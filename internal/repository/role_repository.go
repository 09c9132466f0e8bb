package repository

import (
	"context"
	"database/sql"
)

// RoleRepo provides data access to the roles and user_roles tables.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// Grant assigns a role to a user. Called once per user, at
// registration confirmation, with the default role.
func (r *RoleRepo) Grant(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)",
		userID, roleID)
	return err
}

// NamesForUser returns the distinct role names currently assigned to
// a user. The result is embedded into access tokens at issuance time.
func (r *RoleRepo) NamesForUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = ?`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
