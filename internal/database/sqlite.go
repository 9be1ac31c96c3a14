package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	db   *sql.DB
	once sync.Once
)

func Init(dbPath string) error {
	var err error
	once.Do(func() {
		// 确保数据目录存在
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err = os.MkdirAll(dir, 0755); err != nil {
				return
			}
		}

		// 添加连接参数：WAL模式、忙等待超时
		dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return
		}
		if err = db.Ping(); err != nil {
			return
		}

		// 限制连接池大小，SQLite 单写多读
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		err = createTables()
		if err != nil {
			return
		}
		err = runMigrations()
	})
	return err
}

func GetDB() *sql.DB {
	return db
}

// Open 打开一个独立的数据库连接（测试用，不走全局单例）
func Open(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	if _, err := conn.Exec(callLogSchema); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

const callLogSchema = `
CREATE TABLE IF NOT EXISTS call_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt TEXT NOT NULL,
	response TEXT,
	duration_ms REAL NOT NULL DEFAULT 0,
	error TEXT,
	format TEXT NOT NULL DEFAULT 'text',
	schema_str TEXT,
	response_meta TEXT,
	locked INTEGER NOT NULL DEFAULT 0,
	tag TEXT
);
CREATE INDEX IF NOT EXISTS idx_call_logs_time ON call_logs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_call_logs_tag ON call_logs(tag);
CREATE INDEX IF NOT EXISTS idx_call_logs_locked ON call_logs(locked);
`

func createTables() error {
	_, err := db.Exec(callLogSchema)
	return err
}

func runMigrations() error {
	// 早期版本没有 tag 列
	_, _ = db.Exec(`ALTER TABLE call_logs ADD COLUMN tag TEXT`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_call_logs_tag ON call_logs(tag)`)

	return nil
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
