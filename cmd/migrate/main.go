package main

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	zl, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV") != "production")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		zl.Error("DB_URL environment variable is required")
		os.Exit(1)
	}

	migrationsPath, err := findMigrations()
	if err != nil {
		zl.Errorw("migrations directory not found", "err", err)
		os.Exit(1)
	}

	m, err := migrate.New("file://"+migrationsPath, dbUrl)
	if err != nil {
		zl.Errorw("failed to open migrator", "err", err)
		os.Exit(1)
	}
	defer m.Close()

	cmd, args := "up", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	if err := run(m, cmd, args); err != nil {
		zl.Errorw("migration failed", "command", cmd, "err", err)
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		zl.Warnw("could not read schema version", "err", err)
		return
	}
	zl.Infow("migration complete", "command", cmd, "version", version, "dirty", dirty)
}

// run executes up, down, steps N or force V.
func run(m *migrate.Migrate, cmd string, args []string) error {
	var err error
	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps", "force":
		if len(args) != 1 {
			return errors.New(cmd + " needs one integer argument")
		}
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return convErr
		}
		if cmd == "force" {
			return m.Force(n)
		}
		err = m.Steps(n)
	case "version":
		return nil
	default:
		return errors.New("unknown command " + cmd + " (want up, down, steps, force or version)")
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// findMigrations walks up from the working directory and the executable
// looking for a migrations directory.
func findMigrations() (string, error) {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		current := cwd
		for i := 0; i < 6; i++ {
			candidates = append(candidates, filepath.Join(current, "migrations"))
			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
		)
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", os.ErrNotExist
}
