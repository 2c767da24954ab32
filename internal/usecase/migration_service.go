package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"transfer-ledger-service/internal/domain"
)

// MigrationRepository はマイグレーション履歴と実行のインターフェース。
type MigrationRepository interface {
	FindAllApplied(ctx context.Context) ([]*domain.Migration, error)
	IsMigrationApplied(ctx context.Context, version string) (bool, error)
	ApplyInTransaction(ctx context.Context, version, sql string) error
}

// MigrationService はマイグレーションの適用順序制御を提供する。
// SQLの実行と履歴の記録はリポジトリがトランザクション内で行う。
type MigrationService struct {
	repo          MigrationRepository
	migrationsDir string
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(repo MigrationRepository, migrationsDir string) *MigrationService {
	return &MigrationService{
		repo:          repo,
		migrationsDir: migrationsDir,
	}
}

// ApplyMigrations は未適用マイグレーションを番号順に実行し、適用件数を返す。
// 途中で失敗した場合、それまでに適用済みの分はそのまま残る。
func (s *MigrationService) ApplyMigrations(ctx context.Context) (int, error) {
	all, err := s.scanMigrationFiles()
	if err != nil {
		slog.ErrorContext(ctx, "failed to scan migration files",
			"operation", "apply_migrations",
			"error", err,
		)
		return 0, err
	}

	applied := 0
	for _, migration := range all {
		done, err := s.repo.IsMigrationApplied(ctx, migration.Version)
		if err != nil {
			return applied, fmt.Errorf("checking migration status: %w", err)
		}
		if done {
			continue
		}

		sqlBytes, err := os.ReadFile(migration.FilePath)
		if err != nil {
			return applied, fmt.Errorf("%w: version %s: reading file: %v",
				domain.ErrMigrationFailed, migration.Version, err)
		}
		if err := s.repo.ApplyInTransaction(ctx, migration.Version, string(sqlBytes)); err != nil {
			slog.ErrorContext(ctx, "failed to apply migration",
				"operation", "apply_migrations",
				"version", migration.Version,
				"error", err,
			)
			return applied, fmt.Errorf("%w: version %s: %v",
				domain.ErrMigrationFailed, migration.Version, err)
		}

		slog.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"name", migration.Name,
		)
		applied++
	}
	return applied, nil
}

// GetMigrationStatus は全マイグレーションファイルと適用状況を返す。
func (s *MigrationService) GetMigrationStatus(ctx context.Context) ([]*domain.Migration, error) {
	all, err := s.scanMigrationFiles()
	if err != nil {
		return nil, err
	}

	appliedList, err := s.repo.FindAllApplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching applied migrations: %w", err)
	}

	appliedMap := make(map[string]*domain.Migration, len(appliedList))
	for _, m := range appliedList {
		appliedMap[m.Version] = m
	}

	for _, migration := range all {
		if applied, ok := appliedMap[migration.Version]; ok {
			migration.Status = domain.MigrationStatusApplied
			migration.AppliedAt = applied.AppliedAt
		}
	}
	return all, nil
}

// scanMigrationFiles はmigrationsディレクトリの.sqlファイルを
// バージョン順に列挙する。
func (s *MigrationService) scanMigrationFiles() ([]*domain.Migration, error) {
	entries, err := os.ReadDir(s.migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []*domain.Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, name, err := parseMigrationFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, &domain.Migration{
			Version:  version,
			Name:     name,
			FilePath: filepath.Join(s.migrationsDir, entry.Name()),
			Status:   domain.MigrationStatusPending,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseMigrationFileName は {version}_{name}.sql 形式のファイル名を分解する。
func parseMigrationFileName(filename string) (version, name string, err error) {
	parts := strings.SplitN(strings.TrimSuffix(filename, ".sql"), "_", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s (expected {version}_{name}.sql)",
			domain.ErrInvalidMigrationFile, filename)
	}
	return parts[0], parts[1], nil
}
