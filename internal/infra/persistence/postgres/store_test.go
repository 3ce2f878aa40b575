package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"rpascore/pkg/domain"
)

func TestNewStoreEnsuresTableAndLoadsSnapshot(t *testing.T) {
	db, conn := newStubDB()
	payload, err := json.Marshal(map[string]domain.Aircraft{
		"ac-1": {
			Base:         domain.Base{ID: "ac-1", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()},
			Registration: "RPA-0001",
			Model:        "Quad X2",
			Profile:      domain.ComplianceProfile{Category: domain.CategorySmall, WeightKG: 5, MaxAltitudeFT: 400},
		},
	})
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	conn.tables["state"] = []map[string]any{{"bucket": "aircraft", "payload": payload}}

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := len(store.ListAircraft()); got != 1 {
		t.Fatalf("expected 1 aircraft loaded from snapshot, got %d", got)
	}
	var sawDDL bool
	for _, stmt := range conn.execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			sawDDL = true
			break
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.execs)
	}
}

func TestNewStoreSkipsUnknownBuckets(t *testing.T) {
	db, conn := newStubDB()
	conn.tables["state"] = []map[string]any{
		{"bucket": "retired_bucket", "payload": []byte(`{"x":1}`)},
		{"bucket": "aircraft", "payload": []byte(nil)},
	}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := len(store.ListAircraft()); got != 0 {
		t.Fatalf("expected empty store, got %d aircraft", got)
	}
}

func TestRunInTransactionPersistsState(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateAircraft(domain.Aircraft{
			Registration: "RPA-0002",
			Model:        "Fixed Wing",
			Profile:      domain.ComplianceProfile{Category: domain.CategoryMicro, WeightKG: 0.2, MaxAltitudeFT: 200},
		})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	var aircraftPayload []byte
	for _, row := range conn.tables["state"] {
		if row["bucket"] == "aircraft" {
			aircraftPayload, _ = row["payload"].([]byte)
		}
	}
	if len(aircraftPayload) == 0 {
		t.Fatalf("expected aircraft bucket persisted, tables: %v", conn.tables)
	}
	var decoded map[string]domain.Aircraft
	if err := json.Unmarshal(aircraftPayload, &decoded); err != nil {
		t.Fatalf("decode persisted aircraft: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one persisted aircraft, got %d", len(decoded))
	}
	for _, ac := range decoded {
		if ac.Registration != "RPA-0002" {
			t.Fatalf("unexpected persisted registration %q", ac.Registration)
		}
	}
}

func TestRunInTransactionUpsertsBuckets(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i := 0; i < 2; i++ {
		reg := fmt.Sprintf("RPA-%04d", i+10)
		if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			_, err := tx.CreateAircraft(domain.Aircraft{Registration: reg, Model: "M", Profile: domain.ComplianceProfile{Category: domain.CategoryMicro, WeightKG: 0.1, MaxAltitudeFT: 100}})
			return err
		}); err != nil {
			t.Fatalf("RunInTransaction %d: %v", i, err)
		}
	}
	count := 0
	for _, row := range conn.tables["state"] {
		if row["bucket"] == "aircraft" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected single aircraft bucket row after upsert, got %d", count)
	}
}

func TestRunInTransactionStopsOnUserError(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.execs = nil
	userErr := fmt.Errorf("user fail")
	if _, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return userErr }); !errors.Is(err, userErr) {
		t.Fatalf("expected user error to propagate, got %v", err)
	}
	for _, stmt := range conn.execs {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "INSERT") {
			t.Fatalf("expected no persistence after user error, got %v", conn.execs)
		}
	}
}

func TestRunInTransactionPersistErrorWhenExecFails(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.failExec = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateAircraft(domain.Aircraft{Registration: "RPA-0003", Model: "M", Profile: domain.ComplianceProfile{Category: domain.CategoryMicro, WeightKG: 0.1, MaxAltitudeFT: 100}})
		return err
	})
	if err == nil {
		t.Fatalf("expected persistence error when exec fails")
	}
}

func TestPersistCommitError(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.failCommit = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateAircraft(domain.Aircraft{Registration: "RPA-0004", Model: "M", Profile: domain.ComplianceProfile{Category: domain.CategoryMicro, WeightKG: 0.1, MaxAltitudeFT: 100}})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestPersistBeginError(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.failBegin = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateAircraft(domain.Aircraft{Registration: "RPA-0005", Model: "M", Profile: domain.ComplianceProfile{Category: domain.CategoryMicro, WeightKG: 0.1, MaxAltitudeFT: 100}})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "begin") {
		t.Fatalf("expected begin tx error, got %v", err)
	}
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, fmt.Errorf("open fail")
	})
	defer restore()
	if _, err := NewStore("", domain.NewRulesEngine()); err == nil || !strings.Contains(err.Error(), "open fail") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestNewStorePingError(t *testing.T) {
	db, conn := newStubDB()
	conn.failExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("", domain.NewRulesEngine()); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNewStoreRowsError(t *testing.T) {
	db, conn := newStubDB()
	conn.rowsErr = fmt.Errorf("row err")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("ignored", domain.NewRulesEngine()); err == nil {
		t.Fatalf("expected rows error")
	}
}

func TestNewStoreDecodeError(t *testing.T) {
	db, conn := newStubDB()
	conn.tables["state"] = []map[string]any{{"bucket": "missions", "payload": []byte("not-json")}}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("ignored", domain.NewRulesEngine()); err == nil || !strings.Contains(err.Error(), "missions") {
		t.Fatalf("expected decode error for missions bucket, got %v", err)
	}
}

func TestStoreDBExposesHandle(t *testing.T) {
	db, _ := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.DB() == nil {
		t.Fatalf("expected DB handle")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSnapshotRoundTripThroughStateTable(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	window := domain.TimeWindow{Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateMission(domain.Mission{
			RecordID: "MSN-2026-000001",
			Name:     "Survey north ridge",
			Status:   domain.OperationPlanning,
			OwnerRef: "op-1",
			PilotRef: "pilot-1",
			Window:   window,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed mission: %v", err)
	}
	if len(conn.tables["state"]) == 0 {
		t.Fatalf("expected state rows before reload")
	}

	reloaded, err := NewStore("ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	missions := reloaded.ListMissions()
	if len(missions) != 1 {
		t.Fatalf("expected mission to survive reload, got %d", len(missions))
	}
	if missions[0].RecordID != "MSN-2026-000001" {
		t.Fatalf("unexpected record id %q", missions[0].RecordID)
	}
}

// --- stub driver helpers ---

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

type stubConn struct {
	execs      []string
	tables     map[string][]map[string]any
	failExec   bool
	failBegin  bool
	failCommit bool
	rowsErr    error
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) Ping(_ context.Context) error {
	if c.failExec {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *stubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.failBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, fmt.Errorf("exec fail")
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO") {
		table, cols, err := parseInsert(query)
		if err != nil {
			return nil, err
		}
		if len(cols) != len(args) {
			return nil, fmt.Errorf("column/arg mismatch for %s", table)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = args[i].Value
		}
		if strings.Contains(strings.ToUpper(query), "ON CONFLICT") && len(cols) > 0 {
			primary := cols[0]
			var filtered []map[string]any
			for _, existing := range c.tables[table] {
				if existing[primary] == row[primary] {
					continue
				}
				filtered = append(filtered, existing)
			}
			c.tables[table] = filtered
		}
		c.tables[table] = append(c.tables[table], row)
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.tables == nil {
		c.tables = make(map[string][]map[string]any)
	}
	table, cols, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	tableRows := c.tables[table]
	values := make([][]driver.Value, 0, len(tableRows))
	for _, row := range tableRows {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{
		cols: cols,
		rows: values,
		err:  c.rowsErr,
	}, nil
}

type stubTx struct {
	conn *stubConn
}

func (t *stubTx) Commit() error {
	if t.conn.failCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}
func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	cols := splitColumns(rest[open+1 : closeIdx])
	return table, cols, nil
}

func parseSelect(query string) (string, []string, error) {
	lower := strings.ToLower(query)
	selectPrefix := "select "
	fromToken := " from "
	if !strings.HasPrefix(lower, selectPrefix) {
		return "", nil, fmt.Errorf("cannot parse select: %s", query)
	}
	fromIdx := strings.Index(lower, fromToken)
	if fromIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse select: %s", query)
	}
	cols := query[len(selectPrefix):fromIdx]
	table := strings.TrimSpace(query[fromIdx+len(fromToken):])
	if table == "" {
		return "", nil, fmt.Errorf("cannot parse select: %s", query)
	}
	table = strings.Fields(table)[0]
	return strings.ToLower(table), splitColumns(cols), nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
