package persistence

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// PgDumpBackup snapshots the database with pg_dump into a local directory.
type PgDumpBackup struct {
	dsn    string
	dir    string
	logger *zap.Logger
}

// NewPgDumpBackup creates the backup runner.
func NewPgDumpBackup(dsn, dir string, logger *zap.Logger) *PgDumpBackup {
	return &PgDumpBackup{dsn: dsn, dir: dir, logger: logger}
}

// Snapshot writes one timestamped custom-format dump.
func (b *PgDumpBackup) Snapshot(ctx context.Context) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(b.dir, fmt.Sprintf("support-bot-%s.dump", time.Now().Format("20060102-150405")))

	cmd := exec.CommandContext(ctx, "pg_dump", "--format=custom", "--file", path, "--dbname", b.dsn)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump: %w: %s", err, out)
	}
	b.logger.Info("database snapshot written", zap.String("path", path))
	return nil
}
