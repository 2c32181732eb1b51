// Package sqlite is a SQL-backed record store. Either the cgo driver
// (mattn/go-sqlite3, "sqlite3") or the pure-Go driver (modernc.org/sqlite,
// "sqlite") can be selected at open time.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
)

// Driver names accepted by Open.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// DefaultFile is the database name inside the data directory.
const DefaultFile = "roadmap.db"

// Store handles roadmap persistence in SQLite.
type Store struct {
	db     *sql.DB
	driver string

	Now   func() time.Time
	NewID func() string
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at dbPath.
func Open(dbPath, driver string) (*Store, error) {
	switch driver {
	case "":
		driver = DriverPure
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer keeps SQLite from reporting "database is locked".
	db.SetMaxOpenConns(1)

	s := &Store{db: db, driver: driver, Now: time.Now, NewID: uuid.NewString}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name in use.
func (s *Store) Driver() string { return s.driver }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS phases (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		owner TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		effort REAL,
		milestone INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_deps (
		task_id TEXT NOT NULL,
		dep_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (task_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_task_deps_task ON task_deps(task_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// FetchAll implements store.Store.
func (s *Store) FetchAll(ctx context.Context) (model.Snapshot, error) {
	phases, err := s.fetchPhases(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	model.AssignPhaseColors(phases)

	deps, err := s.fetchDeps(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, start_date, end_date, category, status, priority,
		       owner, notes, description, effort, milestone
		FROM tasks
		WHERE archived = 0
		ORDER BY position
	`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var (
			t                model.Task
			date, start, end string
			status, priority string
			effort           sql.NullFloat64
			milestone        bool
		)
		if err := rows.Scan(&t.ID, &t.Name, &date, &start, &end, &t.Category, &status, &priority,
			&t.Owner, &t.Notes, &t.Description, &effort, &milestone); err != nil {
			return model.Snapshot{}, fmt.Errorf("scan task: %w", err)
		}
		t.Status, t.Priority, t.Milestone = model.Status(status), model.Priority(priority), milestone
		if t.Date, err = model.ParseDate(date); err != nil {
			return model.Snapshot{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if t.StartDate, err = model.ParseDate(start); err != nil {
			return model.Snapshot{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if t.EndDate, err = model.ParseDate(end); err != nil {
			return model.Snapshot{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if effort.Valid {
			v := effort.Float64
			t.Effort = &v
		}
		t.BlockedBy = deps[t.ID]
		t.Normalize()
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Tasks: tasks, Phases: phases}, nil
}

func (s *Store) fetchPhases(ctx context.Context) ([]model.Phase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, date FROM phases ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	phases := []model.Phase{}
	for rows.Next() {
		var p model.Phase
		var date string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &date); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		if p.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("phase %s: %w", p.ID, err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

func (s *Store) fetchDeps(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, dep_id FROM task_deps ORDER BY task_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	deps := make(map[string][]string)
	for rows.Next() {
		var taskID, depID string
		if err := rows.Scan(&taskID, &depID); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps[taskID] = append(deps[taskID], depID)
	}
	return deps, rows.Err()
}

// columns maps patchable fields to their column.
var columns = map[model.Field]string{
	model.FieldName:      "name",
	model.FieldDate:      "date",
	model.FieldPriority:  "priority",
	model.FieldStatus:    "status",
	model.FieldNotes:     "notes",
	model.FieldEffort:    "effort",
	model.FieldMilestone: "milestone",
}

// PatchField implements store.Store.
func (s *Store) PatchField(ctx context.Context, taskID string, field model.Field, value string) error {
	col, ok := columns[field]
	if !ok {
		return nil
	}

	// Validate through the model so every backend rejects the same input.
	var probe model.Task
	if err := store.ApplyField(&probe, field, value); err != nil {
		return err
	}
	var arg any
	switch field {
	case model.FieldDate:
		arg = probe.Date.String()
	case model.FieldEffort:
		if probe.Effort != nil {
			arg = *probe.Effort
		}
	case model.FieldMilestone:
		arg = probe.Milestone
	default:
		arg = value
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE tasks SET %s = ? WHERE id = ? AND archived = 0`, col), arg, taskID)
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	return expectOne(res, taskID)
}

// PatchDependencies implements store.Store.
func (s *Store) PatchDependencies(ctx context.Context, taskID string, blockedBy []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := liveTx(ctx, tx, taskID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_deps WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear dependencies: %w", err)
	}
	for i, dep := range blockedBy {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_deps (task_id, dep_id, position) VALUES (?, ?, ?)`, taskID, dep, i); err != nil {
			return fmt.Errorf("insert dependency: %w", err)
		}
	}
	return tx.Commit()
}

// PatchCategory implements store.Store.
func (s *Store) PatchCategory(ctx context.Context, taskID, phaseName string, phases []model.Phase) error {
	p, err := store.ResolvePhase(phases, phaseName)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET category = ? WHERE id = ? AND archived = 0`, p.Name, taskID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOne(res, taskID)
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context) (model.Task, error) {
	t := store.NewTask(s.NewID(), s.Now())
	if err := insertTask(ctx, s.db, t, -1); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// Archive implements store.Store.
func (s *Store) Archive(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET archived = 1 WHERE id = ? AND archived = 0`, taskID)
	if err != nil {
		return fmt.Errorf("archive task: %w", err)
	}
	return expectOne(res, taskID)
}

// Replace wipes the database and loads snap.
func (s *Store) Replace(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM task_deps`, `DELETE FROM tasks`, `DELETE FROM phases`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for i, p := range snap.Phases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO phases (id, name, description, date, position) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.Date.String(), i); err != nil {
			return fmt.Errorf("insert phase %s: %w", p.ID, err)
		}
	}
	for i, t := range snap.Tasks {
		if err := insertTask(ctx, tx, t, i); err != nil {
			return err
		}
		for j, dep := range t.BlockedBy {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_deps (task_id, dep_id, position) VALUES (?, ?, ?)`, t.ID, dep, j); err != nil {
				return fmt.Errorf("insert dependency: %w", err)
			}
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertTask writes t at position; a negative position appends.
func insertTask(ctx context.Context, db execer, t model.Task, position int) error {
	var effort any
	if t.Effort != nil {
		effort = *t.Effort
	}
	posExpr := "?"
	args := []any{
		t.ID, t.Name, t.Date.String(), t.StartDate.String(), t.EndDate.String(), t.Category,
		string(t.Status), string(t.Priority), t.Owner, t.Notes, t.Description, effort, t.Milestone, t.Archived,
	}
	if position < 0 {
		posExpr = "(SELECT COALESCE(MAX(position), -1) + 1 FROM tasks)"
	} else {
		args = append(args, position)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, name, date, start_date, end_date, category, status, priority,
		                   owner, notes, description, effort, milestone, archived, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, `+posExpr+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

func liveTx(ctx context.Context, tx *sql.Tx, taskID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM tasks WHERE id = ? AND archived = 0`, taskID).Scan(&one)
	if err == sql.ErrNoRows {
		return store.NotFound(taskID)
	}
	return err
}

func expectOne(res sql.Result, taskID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.NotFound(taskID)
	}
	return nil
}
