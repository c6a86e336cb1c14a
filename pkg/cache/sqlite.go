package cache

import (
	"context"
	"fmt"

	"github.com/aRestless/staticip/pkg/model"
	"github.com/aRestless/staticip/pkg/registry"
	"gorm.io/gorm"
)

// SQLiteStore keeps every project's registry in one database.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context, project string) (*registry.Registry, error) {
	var hosts []model.Host

	res := s.db.WithContext(ctx).
		Order("position ASC").
		Find(&hosts, "project = ?", project)
	if res.Error != nil {
		return nil, fmt.Errorf("query hosts: %w", res.Error)
	}

	reg := registry.New()
	for _, h := range hosts {
		reg.Put(registry.HostRecord{
			Address:    h.Address,
			Hostname:   h.Hostname,
			HardwareID: h.HardwareAddress,
		})
	}

	return reg, nil
}

// Save replaces the project's rows in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, project string, reg *registry.Registry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&model.Host{}, "project = ?", project)
		if res.Error != nil {
			return fmt.Errorf("delete hosts: %w", res.Error)
		}

		records := reg.Records()
		if len(records) == 0 {
			return nil
		}

		hosts := make([]model.Host, 0, len(records))
		for i, rec := range records {
			hosts = append(hosts, model.Host{
				Project:         project,
				Address:         rec.Address,
				Hostname:        rec.Hostname,
				HardwareAddress: rec.HardwareID,
				Position:        i,
			})
		}

		if res := tx.CreateInBatches(&hosts, 100); res.Error != nil {
			return fmt.Errorf("insert hosts: %w", res.Error)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save project %s: %w", project, err)
	}

	return nil
}
