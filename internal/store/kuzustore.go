//go:build cgo

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/docplan/internal/record"
)

// KuzuStore implements Store on KuzuDB. A plan is a Plan node with a ROOT
// edge to its tree; relation nodes have NUCLEUS and SATELLITE edges to their
// children. It requires CGO because the go-kuzu driver wraps KuzuDB's C
// library.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at
// dbPath. KuzuDB creates the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// Node kinds stored in TreeNode.kind.
const (
	kindMessage  = "message"
	kindRelation = "relation"
)

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Plan(
		id STRING,
		item_id STRING,
		title STRING,
		score DOUBLE,
		created_at INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS TreeNode(
		id STRING,
		plan_id STRING,
		path STRING,
		kind STRING,
		tag STRING,
		payload STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS ROOT(FROM Plan TO TreeNode)`,
	`CREATE REL TABLE IF NOT EXISTS NUCLEUS(FROM TreeNode TO TreeNode)`,
	`CREATE REL TABLE IF NOT EXISTS SATELLITE(FROM TreeNode TO TreeNode)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// treeRow is one flattened tree node. Paths are "0" for the root and
// parent+".n" / parent+".s" for children.
type treeRow struct {
	path    string
	kind    string
	tag     string
	payload string
	parent  string
	edge    string
}

func flatten(root record.Node) ([]treeRow, error) {
	var rows []treeRow
	var walk func(n record.Node, path, parent, edge string) error
	walk = func(n record.Node, path, parent, edge string) error {
		row := treeRow{path: path, tag: n.Tag(), parent: parent, edge: edge}
		switch x := n.(type) {
		case *record.ConstituentSet:
			row.kind = kindRelation
			rows = append(rows, row)
			if err := walk(x.Nucleus(), path+".n", path, "NUCLEUS"); err != nil {
				return err
			}
			return walk(x.Satellite(), path+".s", path, "SATELLITE")
		default:
			data, err := record.EncodeValue(n)
			if err != nil {
				return err
			}
			row.kind = kindMessage
			row.payload = string(data)
			rows = append(rows, row)
			return nil
		}
	}
	if err := walk(root, "0", "", ""); err != nil {
		return nil, err
	}
	return rows, nil
}

func nodeID(planID, path string) string { return planID + "/" + path }

// SavePlan writes the plan and its tree in one transaction.
func (s *KuzuStore) SavePlan(_ context.Context, plan StoredPlan) error {
	if err := validate(plan); err != nil {
		return err
	}
	rows, err := flatten(plan.Root)
	if err != nil {
		return fmt.Errorf("kuzu: encode plan %q: %w", plan.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.query("MATCH (p:Plan {id: $id}) RETURN p.id", map[string]any{"id": plan.ID})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("store: plan %q already exists", plan.ID)
	}

	if err := s.run("BEGIN TRANSACTION"); err != nil {
		return err
	}
	if err := s.writePlan(plan, rows); err != nil {
		_ = s.run("ROLLBACK")
		return err
	}
	return s.run("COMMIT")
}

func (s *KuzuStore) writePlan(plan StoredPlan, rows []treeRow) error {
	err := s.exec(
		`CREATE (p:Plan {
			id: $id,
			item_id: $item,
			title: $title,
			score: $score,
			created_at: $created
		})`,
		map[string]any{
			"id":      plan.ID,
			"item":    plan.ItemID,
			"title":   plan.Title,
			"score":   plan.Score,
			"created": plan.CreatedAt.UnixNano(),
		},
	)
	if err != nil {
		return err
	}

	for _, r := range rows {
		err := s.exec(
			`CREATE (n:TreeNode {
				id: $id,
				plan_id: $plan,
				path: $path,
				kind: $kind,
				tag: $tag,
				payload: $payload
			})`,
			map[string]any{
				"id":      nodeID(plan.ID, r.path),
				"plan":    plan.ID,
				"path":    r.path,
				"kind":    r.kind,
				"tag":     r.tag,
				"payload": r.payload,
			},
		)
		if err != nil {
			return err
		}
	}

	for _, r := range rows {
		var err error
		switch r.edge {
		case "":
			err = s.exec(
				`MATCH (p:Plan {id: $src}), (n:TreeNode {id: $dst})
				 CREATE (p)-[:ROOT]->(n)`,
				map[string]any{"src": plan.ID, "dst": nodeID(plan.ID, r.path)},
			)
		case "NUCLEUS":
			err = s.exec(
				`MATCH (a:TreeNode {id: $src}), (b:TreeNode {id: $dst})
				 CREATE (a)-[:NUCLEUS]->(b)`,
				map[string]any{"src": nodeID(plan.ID, r.parent), "dst": nodeID(plan.ID, r.path)},
			)
		case "SATELLITE":
			err = s.exec(
				`MATCH (a:TreeNode {id: $src}), (b:TreeNode {id: $dst})
				 CREATE (a)-[:SATELLITE]->(b)`,
				map[string]any{"src": nodeID(plan.ID, r.parent), "dst": nodeID(plan.ID, r.path)},
			)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

// GetPlan retrieves a plan and rebuilds its tree, or returns nil if not found.
func (s *KuzuStore) GetPlan(_ context.Context, id string) (*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(
		`MATCH (p:Plan {id: $id})-[:ROOT]->(r:TreeNode)
		 RETURN p.item_id, p.title, p.score, p.created_at, r.path`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	plan := &StoredPlan{
		ID:        id,
		ItemID:    toString(r[0]),
		Title:     toString(r[1]),
		Score:     toFloat64(r[2]),
		CreatedAt: time.Unix(0, toInt64(r[3])).UTC(),
	}
	rootPath := toString(r[4])

	nodeRows, err := s.query(
		`MATCH (n:TreeNode) WHERE n.plan_id = $id
		 RETURN n.path, n.kind, n.tag, n.payload`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]treeRow, len(nodeRows))
	for _, nr := range nodeRows {
		row := treeRow{path: toString(nr[0]), kind: toString(nr[1]), tag: toString(nr[2]), payload: toString(nr[3])}
		byPath[row.path] = row
	}

	root, err := rebuild(byPath, rootPath)
	if err != nil {
		return nil, fmt.Errorf("kuzu: plan %q: %w", id, err)
	}
	plan.Root = root
	return plan, nil
}

func rebuild(byPath map[string]treeRow, path string) (record.Node, error) {
	row, ok := byPath[path]
	if !ok {
		return nil, fmt.Errorf("missing tree node %s", path)
	}
	if row.kind == kindRelation {
		n, err := rebuild(byPath, path+".n")
		if err != nil {
			return nil, err
		}
		sat, err := rebuild(byPath, path+".s")
		if err != nil {
			return nil, err
		}
		return record.NewConstituentSet(row.tag, n, sat), nil
	}
	return record.DecodeNode([]byte(row.payload))
}

// ListPlans returns all plan summaries.
func (s *KuzuStore) ListPlans(_ context.Context) ([]PlanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(
		"MATCH (p:Plan) RETURN p.id, p.item_id, p.title, p.score, p.created_at",
		nil,
	)
	if err != nil {
		return nil, err
	}
	counts, err := s.query(
		"MATCH (n:TreeNode) RETURN n.plan_id, n.kind, count(n)",
		nil,
	)
	if err != nil {
		return nil, err
	}
	type tally struct{ msgs, rels int }
	byPlan := make(map[string]tally)
	for _, c := range counts {
		t := byPlan[toString(c[0])]
		if toString(c[1]) == kindRelation {
			t.rels += toInt(c[2])
		} else {
			t.msgs += toInt(c[2])
		}
		byPlan[toString(c[0])] = t
	}

	out := make([]PlanSummary, 0, len(rows))
	for _, r := range rows {
		id := toString(r[0])
		out = append(out, PlanSummary{
			ID:        id,
			ItemID:    toString(r[1]),
			Title:     toString(r[2]),
			Score:     toFloat64(r[3]),
			CreatedAt: time.Unix(0, toInt64(r[4])).UTC(),
			Messages:  byPlan[id].msgs,
			Relations: byPlan[id].rels,
		})
	}
	sortSummaries(out)
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of plans and tree nodes by kind.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.count("MATCH (p:Plan) RETURN count(p)", nil)
	if err != nil {
		return nil, err
	}
	msgs, err := s.count("MATCH (n:TreeNode) WHERE n.kind = $kind RETURN count(n)", map[string]any{"kind": kindMessage})
	if err != nil {
		return nil, err
	}
	rels, err := s.count("MATCH (n:TreeNode) WHERE n.kind = $kind RETURN count(n)", map[string]any{"kind": kindRelation})
	if err != nil {
		return nil, err
	}
	return &Stats{PlanCount: plans, MessageCount: msgs, RelationCount: rels}, nil
}

// ---------- Internal helpers ----------

// run executes an unparameterized statement.
func (s *KuzuStore) run(cypher string) error {
	res, err := s.conn.Query(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: %s: %w", cypher, err)
	}
	res.Close()
	return nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows in column
// order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) count(cypher string, params map[string]any) (int, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toInt(v any) int { return int(toInt64(v)) }

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
