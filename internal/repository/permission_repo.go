package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pdl-records/internal/model"
)

type PermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// GetPermissions returns the capability matrix for a role, ordered by
// module name. Modules without a grant row are simply absent.
func (r *PermissionRepository) GetPermissions(ctx context.Context, roleID int64) ([]model.PermissionGrant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.module_name, rp.can_view, rp.can_create, rp.can_edit, rp.can_delete, rp.can_approve
		 FROM role_permissions rp
		 JOIN modules m ON rp.module_id = m.module_id
		 WHERE rp.role_id = $1
		 ORDER BY m.module_name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	grants := make([]model.PermissionGrant, 0)
	for rows.Next() {
		var g model.PermissionGrant
		if err := rows.Scan(&g.Module, &g.CanView, &g.CanCreate, &g.CanEdit, &g.CanDelete, &g.CanApprove); err != nil {
			return nil, fmt.Errorf("scan permission grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
