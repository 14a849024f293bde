package dup

import (
	"database/sql"
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"
)

// vecStore is a process-local, in-memory nearest-neighbor index over
// function embeddings, backed by a vec0-shaped virtual table and a cosine
// distance scalar function. Adapted from the teacher's
// internal/store/vec_compat.go sqlite-vec compatibility shim: this project
// standardized on the cgo-free modernc.org/sqlite driver (SPEC_FULL.md §2),
// so internal/dup uses the same pure-Go vtab registration path rather than
// the teacher's cgo sqlite-vec-go-bindings alternative.
type vecStore struct {
	db *sql.DB
}

var registerOnce sync.Once

func newVecStore() (*vecStore, error) {
	registerOnce.Do(func() {
		_ = vtab.RegisterModule(nil, "anteater_vec0", &vecModule{})
		_ = sqlite.RegisterDeterministicScalarFunction("anteater_vec_cosine_distance", 2, vecCosineDistance)
	})

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("dup: open vector index: %w", err)
	}
	if _, err := db.Exec(`CREATE VIRTUAL TABLE functions USING anteater_vec0(
		embedding BLOB, qualified_name TEXT, file TEXT, line INTEGER)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("dup: create vector table: %w", err)
	}
	return &vecStore{db: db}, nil
}

func (s *vecStore) Close() error { return s.db.Close() }

// Insert adds one function's embedding to the index.
func (s *vecStore) Insert(embedding []float32, qualifiedName, file string, line int) error {
	_, err := s.db.Exec(
		`INSERT INTO functions(embedding, qualified_name, file, line) VALUES (?, ?, ?, ?)`,
		encodeEmbedding(embedding), qualifiedName, file, line,
	)
	return err
}

// Neighbor is one nearest-neighbor match, with its cosine distance (0 =
// identical direction, 2 = opposite).
type Neighbor struct {
	QualifiedName string
	File          string
	Line          int
	Distance      float64
}

// Query returns up to k neighbors of embedding, closest first, excluding
// nothing by identity (callers filter out self-matches by qualified name).
func (s *vecStore) Query(embedding []float32, k int) ([]Neighbor, error) {
	rows, err := s.db.Query(
		`SELECT qualified_name, file, line, anteater_vec_cosine_distance(embedding, ?) AS distance
		 FROM functions
		 ORDER BY distance ASC
		 LIMIT ?`,
		encodeEmbedding(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("dup: query neighbors: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.QualifiedName, &n.File, &n.Line, &n.Distance); err != nil {
			return nil, fmt.Errorf("dup: scan neighbor: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// vecModule is a minimal vec0-shaped virtual table module. Unlike the
// teacher's compat shim, which keeps a process-wide registry of tables
// keyed by name so any number of callers can share one vec0 table, this
// package only ever opens one table ("functions") inside one Detector's
// private in-memory database, so connect needs no name lookup at all:
// every Create/Connect call gets a brand-new, unshared vecTable.
type vecModule struct{}

func (m *vecModule) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx)
}

func (m *vecModule) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx)
}

func (m *vecModule) connect(ctx vtab.Context) (vtab.Table, error) {
	if err := ctx.Declare("CREATE TABLE x(embedding BLOB, qualified_name TEXT, file TEXT, line INTEGER)"); err != nil {
		return nil, err
	}
	return &vecTable{nextRowID: 1}, nil
}

type vecRow struct {
	rowid         int64
	embedding     []byte
	qualifiedName string
	file          string
	line          int64
}

// vecTable holds every embedding inserted into one Detector's index. Rows
// are never deleted in practice (detection runs insert-then-query-only),
// so Delete and the replace branch of Update exist only to satisfy
// vtab.Updater's method set, not because this package exercises them.
type vecTable struct {
	mu        sync.RWMutex
	rows      []vecRow
	nextRowID int64
}

func (t *vecTable) BestIndex(info *vtab.IndexInfo) error {
	info.EstimatedRows = int64(len(t.rows))
	return nil
}

func (t *vecTable) Open() (vtab.Cursor, error) { return &vecCursor{tbl: t}, nil }
func (t *vecTable) Disconnect() error          { return nil }
func (t *vecTable) Destroy() error             { return nil }

// rowFromColumns builds a vecRow from an Insert/Update column list. SQLite
// always hands back exactly the four values this table's Declare'd schema
// names, so there's nothing to validate beyond each column's own type.
func rowFromColumns(cols []vtab.Value) (vecRow, error) {
	blob, err := asBlob(cols[0])
	if err != nil {
		return vecRow{}, err
	}
	return vecRow{
		embedding:     blob,
		qualifiedName: asText(cols[1]),
		file:          asText(cols[2]),
		line:          asInt(cols[3]),
	}, nil
}

func (t *vecTable) Insert(cols []vtab.Value, rowid *int64) error {
	row, err := rowFromColumns(cols)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	row.rowid = *rowid
	if row.rowid <= 0 {
		row.rowid = t.nextRowID
		t.nextRowID++
	}
	t.rows = append(t.rows, row)
	*rowid = row.rowid
	return nil
}

func (t *vecTable) Update(oldRowid int64, cols []vtab.Value, newRowid *int64) error {
	row, err := rowFromColumns(cols)
	if err != nil {
		return err
	}
	row.rowid = oldRowid
	if newRowid != nil && *newRowid > 0 {
		row.rowid = *newRowid
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].rowid == oldRowid {
			t.rows[i] = row
			return nil
		}
	}
	return fmt.Errorf("dup: no embedding row with rowid %d", oldRowid)
}

func (t *vecTable) Delete(oldRowid int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].rowid == oldRowid {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// vecCursor scans a snapshot of vecTable.rows taken once at Filter time.
// Nothing in this package mutates a table while a query over it is in
// flight (Detector finishes each function's query before inserting it,
// one function at a time, never concurrently),
// so a cheap copy-on-filter avoids re-locking the table on every Next/
// Column/Rowid call the way a live-index cursor would need to.
type vecCursor struct {
	tbl  *vecTable
	rows []vecRow
}

func (c *vecCursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.tbl.mu.RLock()
	c.rows = append([]vecRow(nil), c.tbl.rows...)
	c.tbl.mu.RUnlock()
	return nil
}

func (c *vecCursor) Next() error {
	c.rows = c.rows[1:]
	return nil
}

func (c *vecCursor) Eof() bool { return len(c.rows) == 0 }

func (c *vecCursor) Column(col int) (vtab.Value, error) {
	row := c.rows[0]
	switch col {
	case 0:
		return row.embedding, nil
	case 1:
		return row.qualifiedName, nil
	case 2:
		return row.file, nil
	case 3:
		return row.line, nil
	default:
		return nil, fmt.Errorf("dup: embedding index has no column %d", col)
	}
}

func (c *vecCursor) Rowid() (int64, error) { return c.rows[0].rowid, nil }

func (c *vecCursor) Close() error { return nil }

// vecCosineDistance is registered as a deterministic SQL scalar function so
// ORDER BY can rank rows by distance to a query embedding without pulling
// every row back into Go first.
func vecCosineDistance(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("anteater_vec_cosine_distance: expects 2 arguments")
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, err
	}
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return float64(2), nil
	}

	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return float64(2), nil
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil
}

func asEmbedding(v driver.Value) ([]float32, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("anteater_vec_cosine_distance: expected blob, got %T", v)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("anteater_vec_cosine_distance: blob length %d not a multiple of 4", len(b))
	}
	return decodeEmbedding(b), nil
}

// asBlob reads an embedding column. SQLite hands a BLOB bound value back as
// either []byte or string depending on how the driver marshaled it; any
// other type means something other than this package's own encodeEmbedding
// output was bound, which is a caller bug rather than a recoverable input.
func asBlob(v vtab.Value) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("dup: embedding column holds %T, want a blob", v)
	}
}

// asText reads a TEXT column (qualified_name/file). SQLite's TEXT affinity
// only ever surfaces as string or []byte here; there's no third case to
// handle since this table's only writer is vecStore.Insert.
func asText(v vtab.Value) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return ""
	}
}

// asInt reads the INTEGER line column.
func asInt(v vtab.Value) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	default:
		return 0
	}
}
