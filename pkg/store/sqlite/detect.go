package sqlite

import (
	"database/sql"
	"os"
)

// IsRoadmapDB reports whether path is an existing SQLite database that
// carries the roadmap tasks table. It opens the file read-only.
func IsRoadmapDB(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	db, err := sql.Open(DriverPure, "file:"+path+"?mode=ro")
	if err != nil {
		return false
	}
	defer db.Close()

	var tableName string
	err = db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='tasks'
	`).Scan(&tableName)
	return err == nil && tableName == "tasks"
}
