package sqldb

import (
	"database/sql"

	"github.com/alfredjeanlab/corrlog/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanConfig(row scannable) (model.CorrelationConfig, error) {
	var (
		c       model.CorrelationConfig
		name    string
		enabled sql.NullString
	)
	if err := row.Scan(&name, &enabled); err != nil {
		return c, err
	}
	c.Component = model.Component(name)
	c.Enabled = enabled.String
	c.Properties = []model.CorrelationConfigProperty{}
	return c, nil
}

// scanConfigs drains and closes rows.
func scanConfigs(rows *sql.Rows) ([]model.CorrelationConfig, error) {
	defer rows.Close()
	configs := []model.CorrelationConfig{}
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// scanProperties drains and closes rows.
func scanProperties(rows *sql.Rows) ([]model.CorrelationConfigProperty, error) {
	defer rows.Close()
	props := []model.CorrelationConfigProperty{}
	for rows.Next() {
		var (
			name  string
			value sql.NullString
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		props = append(props, model.CorrelationConfigProperty{
			Name:  name,
			Value: model.SplitValue(value.String),
		})
	}
	return props, rows.Err()
}
