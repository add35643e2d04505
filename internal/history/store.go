// Package history 用 SQLite 记录每次识别的结果。
// 只保留分类结果，不保留用户画作本身。
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/iabetor/inkdigit/internal/logger"
)

// Entry 一条识别记录。
type Entry struct {
	ID         string
	CreatedAt  time.Time
	Label      int
	Confidence float64
	InkPixels  int
}

// Store 识别历史存储。
type Store struct {
	db   *sql.DB
	path string
}

// Open 打开或创建历史数据库并执行迁移。
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("历史数据库路径为空")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// WAL 模式下写入不阻塞读取
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof("[history] 数据库已打开: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	const ddl = `CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		label INTEGER NOT NULL,
		confidence REAL NOT NULL,
		ink_pixels INTEGER NOT NULL
	)`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("创建 predictions 表失败: %w", err)
	}
	return nil
}

// Record 写入一条识别记录。
func (s *Store) Record(label int, confidence float64, inkPixels int) error {
	_, err := s.db.Exec(
		"INSERT INTO predictions (id, created_at, label, confidence, ink_pixels) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), time.Now().UTC(), label, confidence, inkPixels,
	)
	if err != nil {
		return fmt.Errorf("写入识别记录失败: %w", err)
	}
	return nil
}

// Recent 返回最近 n 条记录，按时间倒序。
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT id, created_at, label, confidence, ink_pixels FROM predictions ORDER BY created_at DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("查询识别记录失败: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Label, &e.Confidence, &e.InkPixels); err != nil {
			return nil, fmt.Errorf("读取识别记录失败: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Path 返回数据库文件路径。
func (s *Store) Path() string {
	return s.path
}

// Close 关闭数据库。
func (s *Store) Close() error {
	return s.db.Close()
}
