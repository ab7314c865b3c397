package repository

import (
	"context"

	"incident-board/internal/models"
)

// CatalogRepository 参考数据加载接口（启动时加载一次，之后只读）
type CatalogRepository interface {
	LoadCatalog(ctx context.Context) (models.Catalog, error)
}

// MemoryCatalogRepository serves the embedded seed catalog when no DB is
// configured, so the server stays usable with plain `go run`.
type MemoryCatalogRepository struct {
	catalog models.Catalog
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{catalog: seedCatalog()}
}

var _ CatalogRepository = (*MemoryCatalogRepository)(nil)

func (r *MemoryCatalogRepository) LoadCatalog(_ context.Context) (models.Catalog, error) {
	return r.catalog.Normalize(), nil
}

// seedCatalog 内置演示参考数据
func seedCatalog() models.Catalog {
	return models.Catalog{
		EscalationLevels: []models.CatalogEntry{
			{ID: "esc-low", Name: "Low"},
			{ID: "esc-medium", Name: "Medium"},
			{ID: "esc-high", Name: "High"},
			{ID: "esc-critical", Name: "Critical"},
		},
		IncidentTypes: []models.CatalogEntry{
			{ID: "type-mechanical", Name: "Mechanical"},
			{ID: "type-electrical", Name: "Electrical"},
			{ID: "type-thermal", Name: "Thermal"},
			{ID: "type-pressure", Name: "Pressure"},
		},
		Sites: []models.CatalogEntry{
			{ID: "site-north", Name: "North Plant"},
			{ID: "site-south", Name: "South Plant"},
			{ID: "site-west", Name: "West Depot"},
		},
		Assets: []models.CatalogEntry{
			{ID: "asset-pump-a", Name: "Pump A"},
			{ID: "asset-pump-b", Name: "Pump B"},
			{ID: "asset-compressor-1", Name: "Compressor 1"},
			{ID: "asset-boiler-2", Name: "Boiler 2"},
		},
		Alarms: []models.CatalogEntry{
			{ID: "alarm-overtemp", Name: "Over Temperature"},
			{ID: "alarm-overpressure", Name: "Over Pressure"},
			{ID: "alarm-vibration", Name: "Excess Vibration"},
		},
	}
}
