package repository

import (
	"context"
	"database/sql"
	"fmt"

	"incident-board/internal/models"

	_ "github.com/lib/pq"
)

// PostgresCatalogRepository 从五张参考表加载 catalog
type PostgresCatalogRepository struct {
	db *sql.DB
}

func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

var _ CatalogRepository = (*PostgresCatalogRepository)(nil)

func (r *PostgresCatalogRepository) LoadCatalog(ctx context.Context) (models.Catalog, error) {
	var catalog models.Catalog
	var err error

	if catalog.EscalationLevels, err = r.loadEntries(ctx, "escalation_levels"); err != nil {
		return models.Catalog{}, err
	}
	if catalog.IncidentTypes, err = r.loadEntries(ctx, "incident_types"); err != nil {
		return models.Catalog{}, err
	}
	if catalog.Sites, err = r.loadEntries(ctx, "sites"); err != nil {
		return models.Catalog{}, err
	}
	if catalog.Assets, err = r.loadEntries(ctx, "assets"); err != nil {
		return models.Catalog{}, err
	}
	if catalog.Alarms, err = r.loadEntries(ctx, "alarms"); err != nil {
		return models.Catalog{}, err
	}

	return catalog.Normalize(), nil
}

func (r *PostgresCatalogRepository) loadEntries(ctx context.Context, table string) ([]models.CatalogEntry, error) {
	// 表名来自固定白名单，不是用户输入
	query := fmt.Sprintf(`SELECT id, COALESCE(name, '') AS name FROM %s ORDER BY name`, table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var entries []models.CatalogEntry
	for rows.Next() {
		var e models.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}

	return entries, nil
}
