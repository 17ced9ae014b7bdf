package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"kaiapay.backend/internal/config"
	"kaiapay.backend/internal/infrastructure/models"
)

type migrateDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	open    func(dsn string) (*gorm.DB, io.Closer, error)
	out     io.Writer
}

// openPostgres opens a lib/pq connection and hands it to gorm
func openPostgres(dsn string) (*gorm.DB, io.Closer, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to reach database: %w", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to init gorm: %w", err)
	}
	return db, sqlDB, nil
}

func defaultMigrateDeps() migrateDeps {
	return migrateDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		open:    openPostgres,
		out:     os.Stdout,
	}
}

func runMigrate(args []string, deps migrateDeps) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(deps.out)
	dsn := fs.String("dsn", "", "database url (defaults to DATABASE_URL / DB_* settings)")
	dryRun := fs.Bool("dry-run", false, "list the tables without migrating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		fmt.Fprintln(deps.out, "No .env file found, using environment variables")
	}
	if *dsn == "" {
		*dsn = deps.loadCfg().Database.URL()
	}

	db, closer, err := deps.open(*dsn)
	if err != nil {
		return err
	}
	defer closer.Close()

	all := models.All()
	for _, m := range all {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("parse model %T: %w", m, err)
		}
		fmt.Fprintf(deps.out, "table %s\n", stmt.Schema.Table)
	}
	if *dryRun {
		return nil
	}

	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	fmt.Fprintf(deps.out, "migrated %d tables\n", len(all))
	return nil
}

func main() {
	if err := runMigrate(os.Args[1:], defaultMigrateDeps()); err != nil {
		log.Fatal(err)
	}
}
