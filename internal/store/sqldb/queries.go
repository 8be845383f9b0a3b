package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

// Statements are written in the subset of SQL shared by PostgreSQL and
// SQLite: numbered placeholders used once each, in order.
const (
	stmtExists = `SELECT 1 FROM correlation_configs LIMIT 1`

	stmtListConfigs = `
		SELECT component_name, enabled
		FROM correlation_configs`

	stmtListProperties = `
		SELECT property_name, property_value
		FROM correlation_properties
		WHERE component_name = $1
		ORDER BY property_name`

	stmtInsertConfig = `
		INSERT INTO correlation_configs (component_name, enabled)
		VALUES ($1, $2)
		ON CONFLICT (component_name) DO NOTHING`

	stmtInsertProperty = `
		INSERT INTO correlation_properties (component_name, property_name, property_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (component_name, property_name) DO NOTHING`

	stmtUpsertConfig = `
		INSERT INTO correlation_configs (component_name, enabled)
		VALUES ($1, $2)
		ON CONFLICT (component_name) DO UPDATE SET enabled = excluded.enabled`

	stmtUpsertProperty = `
		INSERT INTO correlation_properties (component_name, property_name, property_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (component_name, property_name) DO UPDATE SET property_value = excluded.property_value`
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// preparer is satisfied by *sql.Tx.
type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func queryExists(ctx context.Context, db executor) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, stmtExists).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// queryGetAll reads every config, then issues one property read per
// config. The config cursor is drained and closed first so the property
// reads can reuse the connection inside a transaction.
func queryGetAll(ctx context.Context, db executor) ([]model.CorrelationConfig, error) {
	rows, err := db.QueryContext(ctx, stmtListConfigs)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	configs, err := scanConfigs(rows)
	if err != nil {
		return nil, fmt.Errorf("scan configs: %w", err)
	}

	sort.SliceStable(configs, func(i, j int) bool {
		oi, oj := configs[i].Component.Ordinal(), configs[j].Component.Ordinal()
		if oi != oj {
			return oi < oj
		}
		return configs[i].Component < configs[j].Component
	})

	for i := range configs {
		props, err := queryGetProperties(ctx, db, configs[i].Component)
		if err != nil {
			return nil, err
		}
		configs[i].Properties = props
	}
	return configs, nil
}

func queryGetProperties(ctx context.Context, db executor, component model.Component) ([]model.CorrelationConfigProperty, error) {
	rows, err := db.QueryContext(ctx, stmtListProperties, string(component))
	if err != nil {
		return nil, fmt.Errorf("list properties for %s: %w", component, err)
	}
	props, err := scanProperties(rows)
	if err != nil {
		return nil, fmt.Errorf("scan properties for %s: %w", component, err)
	}
	return props, nil
}

// querySeedDefaults inserts the given configs, skipping rows that already
// exist so seeding can be repeated safely.
func querySeedDefaults(ctx context.Context, db executor, defaults []model.CorrelationConfig) error {
	for _, c := range defaults {
		if _, err := db.ExecContext(ctx, stmtInsertConfig, string(c.Component), c.Enabled); err != nil {
			return fmt.Errorf("insert config %s: %w", c.Component, err)
		}
	}
	for _, c := range defaults {
		for _, p := range c.Properties {
			if _, err := db.ExecContext(ctx, stmtInsertProperty, string(c.Component), p.Name, model.JoinValue(p.Value)); err != nil {
				return fmt.Errorf("insert property %s/%s: %w", c.Component, p.Name, err)
			}
		}
	}
	return nil
}

// queryUpdateAll stages config flags for the whole request and property
// rows per config. A config's property batch runs only after all of its
// properties validate; the config batch runs last. The caller owns the
// transaction and rolls it back on any returned error.
func queryUpdateAll(ctx context.Context, tx preparer, configs []model.CorrelationConfig) error {
	configStmt, err := tx.PrepareContext(ctx, stmtUpsertConfig)
	if err != nil {
		return fmt.Errorf("prepare config upsert: %w", err)
	}
	defer configStmt.Close()

	propStmt, err := tx.PrepareContext(ctx, stmtUpsertProperty)
	if err != nil {
		return fmt.Errorf("prepare property upsert: %w", err)
	}
	defer propStmt.Close()

	configBatch := newBatch(configStmt)
	propBatch := newBatch(propStmt)

	for _, c := range configs {
		configBatch.add(string(c.Component), c.Enabled)

		for _, p := range c.Properties {
			if err := model.ValidateProperty(c.Component, p); err != nil {
				return err
			}
			propBatch.add(string(c.Component), p.Name, model.JoinValue(p.Value))
		}
		if propBatch.len() == 0 {
			continue
		}
		if err := propBatch.exec(ctx); err != nil {
			return fmt.Errorf("write properties for %s: %w", c.Component, err)
		}
	}

	if err := configBatch.exec(ctx); err != nil {
		return fmt.Errorf("write configs: %w", err)
	}
	return nil
}
