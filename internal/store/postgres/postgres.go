// Package postgres implements the store interfaces on Postgres.
// Device properties and states are kept as JSONB and decoded back into
// their typed variants by device_type.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"energy_manager/internal/model"
	"energy_manager/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateDevice(ctx context.Context, d *model.Device) error {
	props, err := json.Marshal(d.Properties)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	state, err := json.Marshal(d.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO devices (id, name, description, device_type, is_active, properties, current_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, d.Description, d.Type, d.IsActive, props, state, d.CreatedAt, d.UpdatedAt)
	return err
}

func (s *Store) Device(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, device_type, is_active, properties, current_state, created_at, updated_at
		FROM devices WHERE id = $1`, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDeviceNotFound
	}
	return d, err
}

func (s *Store) Devices(ctx context.Context, filter store.DeviceFilter) ([]*model.Device, error) {
	q := `
		SELECT id, name, description, device_type, is_active, properties, current_state, created_at, updated_at
		FROM devices WHERE 1=1`
	args := []any{}
	if filter.ActiveOnly {
		q += " AND is_active"
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		q += fmt.Sprintf(" AND device_type = $%d", len(args))
	}
	q += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDeviceState(ctx context.Context, id uuid.UUID, state model.State, at time.Time) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE devices SET current_state = $2, updated_at = $3 WHERE id = $1`,
		id, b, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrDeviceNotFound
	}
	return nil
}

func (s *Store) SetDeviceActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE devices SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrDeviceNotFound
	}
	return nil
}

func (s *Store) UpsertReadings(ctx context.Context, readings []model.Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertReadingsTx(ctx, tx, readings); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ReadingsInRange(ctx context.Context, deviceID uuid.UUID, start, end time.Time) ([]model.Reading, error) {
	dt, err := s.deviceType(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, power_watts, charge_wh, state_snapshot
		FROM telemetry_readings
		WHERE device_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts`, deviceID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reading
	for rows.Next() {
		var (
			r     model.Reading
			snap  []byte
			chrg  sql.NullFloat64
		)
		if err := rows.Scan(&r.Timestamp, &r.PowerWatts, &chrg, &snap); err != nil {
			return nil, err
		}
		r.DeviceID = deviceID
		if chrg.Valid {
			v := chrg.Float64
			r.ChargeWh = &v
		}
		if r.StateSnapshot, err = model.UnmarshalState(dt, snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Aggregate(ctx context.Context, deviceID uuid.UUID, start, end time.Time, interval model.Interval) ([]model.AggregateBucket, error) {
	if _, err := s.deviceType(ctx, deviceID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT date_trunc($4, ts) AS period,
		       avg(power_watts), max(power_watts), min(power_watts), avg(charge_wh)
		FROM telemetry_readings
		WHERE device_id = $1 AND ts >= $2 AND ts <= $3
		GROUP BY period
		ORDER BY period`, deviceID, start, end, string(interval))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AggregateBucket
	for rows.Next() {
		var (
			b    model.AggregateBucket
			chrg sql.NullFloat64
		)
		if err := rows.Scan(&b.Period, &b.AvgPower, &b.MaxPower, &b.MinPower, &chrg); err != nil {
			return nil, err
		}
		if chrg.Valid {
			v := chrg.Float64
			b.AvgCharge = &v
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ApplyTick persists one simulation tick's device states and readings in a
// single transaction so a partially applied tick is never visible.
func (s *Store) ApplyTick(ctx context.Context, states map[uuid.UUID]model.State, readings []model.Reading, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, state := range states {
		b, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshal state: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE devices SET current_state = $2, updated_at = $3 WHERE id = $1`,
			id, b, at); err != nil {
			return err
		}
	}
	if err := upsertReadingsTx(ctx, tx, readings); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) deviceType(ctx context.Context, id uuid.UUID) (model.DeviceType, error) {
	var dt model.DeviceType
	err := s.db.QueryRowContext(ctx, `SELECT device_type FROM devices WHERE id = $1`, id).Scan(&dt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrDeviceNotFound
	}
	return dt, err
}

func upsertReadingsTx(ctx context.Context, tx *sql.Tx, readings []model.Reading) error {
	for _, r := range readings {
		snap, err := json.Marshal(r.StateSnapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		var chrg sql.NullFloat64
		if r.ChargeWh != nil {
			chrg = sql.NullFloat64{Float64: *r.ChargeWh, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO telemetry_readings (device_id, ts, power_watts, charge_wh, state_snapshot)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (device_id, ts) DO UPDATE
			SET power_watts = EXCLUDED.power_watts,
			    charge_wh = EXCLUDED.charge_wh,
			    state_snapshot = EXCLUDED.state_snapshot`,
			r.DeviceID, r.Timestamp, r.PowerWatts, chrg, snap); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*model.Device, error) {
	var (
		d     model.Device
		props []byte
		state []byte
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Type, &d.IsActive, &props, &state, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.Properties, err = model.UnmarshalProperties(d.Type, props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	if d.State, err = model.UnmarshalState(d.Type, state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &d, nil
}
