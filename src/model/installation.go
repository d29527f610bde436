package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/username/riconcilia/src/models"
)

// ErrInstallationNotFound is returned when no installation carries the requested point-of-sale code.
var ErrInstallationNotFound = errors.New("installation not found")

// GetInstallationIDByPOSCode resolves a point-of-sale code to the registry's internal id.
// The registry is owned by another system; this package never writes to it.
func GetInstallationIDByPOSCode(ctx context.Context, q Querier, posCode int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM impianti WHERE codice_pv_fortech = ?`, strconv.FormatInt(posCode, 10)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInstallationNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup installation for pos code %d: %w", posCode, err)
	}
	return id, nil
}

// GetInstallationByID loads a single installation.
func GetInstallationByID(ctx context.Context, q Querier, id int64) (*models.Installation, error) {
	var inst models.Installation
	var active int
	err := q.QueryRowContext(ctx, `
		SELECT id, codice_pv_fortech, nome, tipo_gestione, attivo
		FROM impianti WHERE id = ?`, id).
		Scan(&inst.ID, &inst.POSCode, &inst.Name, &inst.ManagementType, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInstallationNotFound
	}
	if err != nil {
		return nil, err
	}
	inst.Active = active != 0
	return &inst, nil
}
