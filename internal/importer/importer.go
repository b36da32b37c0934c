// Package importer parses account and rep snapshots from CSV and XLSX
// files into engine input records.
package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/model"
)

// header maps column names (lowercased, trimmed) to positions.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h
}

func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) getBool(row []string, name string) bool {
	switch strings.ToLower(h.get(row, name)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}

func (h header) getFloat(row []string, name string) (float64, error) {
	s := h.get(row, name)
	if s == "" {
		return 0, nil
	}
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "importer: parse %s=%q", name, s)
	}
	return v, nil
}

func (h header) getInt(row []string, name string) (int, error) {
	s := h.get(row, name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "importer: parse %s=%q", name, s)
	}
	return v, nil
}

// getDate accepts the date layouts snapshots arrive in.
func (h header) getDate(row []string, name string) (time.Time, error) {
	s := h.get(row, name)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("importer: unrecognized date %s=%q", name, s)
}

// accountFromRow builds one account from a header-mapped row.
func accountFromRow(h header, row []string, line int) (model.Account, error) {
	a := model.Account{
		ID:                      h.get(row, "id"),
		Name:                    h.get(row, "name"),
		IsParent:                h.getBool(row, "is_parent"),
		UltimateParentID:        h.get(row, "ultimate_parent_id"),
		IsCustomer:              h.getBool(row, "is_customer"),
		Territory:               h.get(row, "territory"),
		CurrentOwnerID:          h.get(row, "current_owner_id"),
		CurrentOwnerName:        h.get(row, "current_owner_name"),
		ExcludeFromReassignment: h.getBool(row, "locked"),
		LockReason:              h.get(row, "lock_reason"),
	}
	if a.ID == "" {
		return a, eris.Errorf("importer: row %d: missing account id", line)
	}

	var err error
	if a.ARR, err = h.getFloat(row, "arr"); err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}
	if a.HierarchyARR, err = h.getFloat(row, "hierarchy_arr"); err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}
	if a.ATR, err = h.getFloat(row, "atr"); err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}
	if a.CRECount, err = h.getInt(row, "cre_count"); err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}
	if a.RenewalDate, err = h.getDate(row, "renewal_date"); err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}

	expTier, err := h.getInt(row, "expansion_tier")
	if err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}
	a.ExpansionTier = model.Tier(expTier)
	isTier, err := h.getInt(row, "initial_sale_tier")
	if err != nil {
		return a, eris.Wrapf(err, "importer: row %d", line)
	}
	a.InitialSaleTier = model.Tier(isTier)

	return a, nil
}

// repFromRow builds one rep from a header-mapped row.
func repFromRow(h header, row []string, line int) (model.SalesRep, error) {
	r := model.SalesRep{
		ID:                   h.get(row, "id"),
		Name:                 h.get(row, "name"),
		Region:               h.get(row, "region"),
		Team:                 h.get(row, "team"),
		IsActive:             h.getBool(row, "is_active"),
		IncludeInAssignments: h.getBool(row, "include_in_assignments"),
		IsManager:            h.getBool(row, "is_manager"),
		IsStrategicRep:       h.getBool(row, "is_strategic_rep"),
	}
	if r.ID == "" {
		return r, eris.Errorf("importer: row %d: missing rep id", line)
	}
	return r, nil
}

// parseAccounts converts header + data rows into accounts.
func parseAccounts(rows [][]string) ([]model.Account, error) {
	if len(rows) == 0 {
		return nil, eris.New("importer: empty account snapshot")
	}
	h := newHeader(rows[0])
	if _, ok := h["id"]; !ok {
		return nil, eris.New("importer: account snapshot missing id column")
	}
	accounts := make([]model.Account, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		a, err := accountFromRow(h, row, i+2)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// parseReps converts header + data rows into reps.
func parseReps(rows [][]string) ([]model.SalesRep, error) {
	if len(rows) == 0 {
		return nil, eris.New("importer: empty rep snapshot")
	}
	h := newHeader(rows[0])
	if _, ok := h["id"]; !ok {
		return nil, eris.New("importer: rep snapshot missing id column")
	}
	reps := make([]model.SalesRep, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		r, err := repFromRow(h, row, i+2)
		if err != nil {
			return nil, err
		}
		reps = append(reps, r)
	}
	return reps, nil
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
