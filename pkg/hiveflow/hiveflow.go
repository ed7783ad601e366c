package hiveflow

import (
	"database/sql"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hiveflow/hiveflow/internal/ai"
	"github.com/hiveflow/hiveflow/internal/channels"
	"github.com/hiveflow/hiveflow/internal/config"
	"github.com/hiveflow/hiveflow/internal/controllers"
	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/engine"
	"github.com/hiveflow/hiveflow/internal/migrations"
	"github.com/hiveflow/hiveflow/internal/repository"
	"github.com/hiveflow/hiveflow/internal/runner"
	"github.com/hiveflow/hiveflow/internal/scheduler"
	"github.com/hiveflow/hiveflow/internal/skills"
	"github.com/hiveflow/hiveflow/internal/vault"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lmittmann/tint"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Start boots storage, the workflow engine, the cron scheduler and the HTTP
// server. This call blocks until the HTTP server stops.
func Start(mux *http.ServeMux) error {

	databaseType := config.GetSystemSettingString(config.DATABASE_TYPE)
	if databaseType == "" || (databaseType != config.DATABASE_TYPE_POSTGRES && databaseType != config.DATABASE_TYPE_MYSQL && databaseType != config.DATABASE_TYPE_SQLLITE) {
		panic("HIVE_DATABASE_TYPE must be set to one of the following values: POSTGRES, MYSQL, SQLLITE")
	}

	var db *sql.DB
	if databaseType == config.DATABASE_TYPE_POSTGRES {
		db = setupPostgresDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_SQLLITE {
		db = setupSqlLiteDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_MYSQL {
		db = setupMysqlDatabase()
		defer db.Close()
	}

	clock := &core.RealClock{}

	workflowRepo := repository.NewWorkflowRepository(db, clock)
	runRepo := repository.NewWorkflowRunRepository(db, clock)
	scheduleRepo := repository.NewScheduleRepository(db, clock)
	scriptRepo := repository.NewScriptRepository(db, clock)
	skillRepo := repository.NewSkillRepository(db, clock)
	credentialRepo := repository.NewCredentialRepository(db, clock)
	identityRepo := repository.NewIdentityRepository(db, clock)
	userRepo := repository.NewUserRepository(db, clock)

	vaultKey := config.GetSystemSettingString(config.VAULT_KEY)
	if vaultKey == "" {
		panic("HIVE_VAULT_KEY must be set to 64 hex characters")
	}
	credentialVault, err := vault.New(credentialRepo, clock, vaultKey)
	if err != nil {
		panic("HIVE_VAULT_KEY is invalid: " + err.Error())
	}

	scriptTimeout, err := time.ParseDuration(config.GetSystemSettingString(config.ENGINE_SCRIPT_TIMEOUT))
	if err != nil {
		panic("HIVE_ENGINE_SCRIPT_TIMEOUT is not a valid duration")
	}
	scriptRunner := runner.New(scriptTimeout)

	skillResolver := skills.NewResolver(skillRepo)
	modelExecutor := ai.NewHTTPExecutor(
		config.GetSystemSettingString(config.MODEL_URL),
		config.GetSystemSettingString(config.MODEL_API_KEY),
		config.GetSystemSettingString(config.MODEL_NAME),
	)

	channelRegistry := channels.NewRegistry()
	channelRegistry.Register("webhook", channels.NewWebhookSender())

	resolver := engine.NewResolver(credentialVault)
	dispatcher := engine.NewDispatcher(scriptRepo, scriptRunner, skillResolver, modelExecutor, channelRegistry, identityRepo)
	eng := engine.NewEngine(workflowRepo, runRepo, resolver, dispatcher, clock)

	sched := scheduler.NewScheduler(scheduleRepo, eng, clock)
	if err := sched.Start(); err != nil {
		slog.Error("Some schedules failed to register", "error", err)
	}
	defer sched.Stop()

	bootstrapFirstUser(userRepo, clock)

	if mux == nil {
		mux = http.NewServeMux()
	}
	controllers.NewWorkflowsController(workflowRepo, eng, clock, userRepo).RegisterRoutes(mux)
	controllers.NewRunsController(runRepo, workflowRepo, userRepo).RegisterRoutes(mux)
	controllers.NewSchedulesController(scheduleRepo, workflowRepo, sched, clock, userRepo).RegisterRoutes(mux)
	controllers.NewScriptsController(scriptRepo, clock, userRepo).RegisterRoutes(mux)
	controllers.NewSkillsController(skillRepo, skillResolver, clock, userRepo).RegisterRoutes(mux)
	controllers.NewCredentialsController(credentialRepo, credentialVault, userRepo).RegisterRoutes(mux)
	controllers.NewIdentitiesController(identityRepo, clock, userRepo).RegisterRoutes(mux)
	controllers.NewUsersController(userRepo, clock).RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.ENGINE_SERVER_WEB_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("HTTP server failed", "error", err)
		return err
	}
	return nil
}

// bootstrapFirstUser creates an initial user when the users table is empty.
// The generated API key is logged exactly once; rotate it after first login.
func bootstrapFirstUser(userRepo *repository.UserRepository, clock core.Clock) {
	n, err := userRepo.Count()
	if err != nil {
		slog.Error("Failed to count users", "error", err)
		return
	}
	if n > 0 {
		return
	}

	password := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash bootstrap password", "error", err)
		return
	}
	apiKey := uuid.NewString()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: string(hash),
		ApiKey:       sql.NullString{String: apiKey, Valid: true},
		Enabled:      true,
		Created:      clock.Now().UTC(),
	}
	if err := userRepo.Save(user); err != nil {
		slog.Error("Failed to create bootstrap user", "error", err)
		return
	}
	slog.Info("Created initial user", "username", user.Username, "apiKey", apiKey)
}

func setupPostgresDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("HIVE_DATABASE_URL must be set when using the POSTGRES database type")
	}
	slog.Info("Using Postgres database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening Postgres database")
	dbPostgres, err := sql.Open("postgres", dbURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbPostgres
}

func setupSqlLiteDatabase() *sql.DB {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLLITE_FILE_NAME)
	if fileName == "" {
		panic("HIVE_DATABASE_SQLLITE_FILE_NAME must be set")
	}
	dbURL := "sqlite3://" + fileName
	slog.Info("Using SQLite database", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqllite3", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening SQLite database")
	dbSqlLite, err := sql.Open("sqlite3", fileName)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	if err := dbSqlLite.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite DB: %v", err)
	}
	return dbSqlLite
}

func setupMysqlDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("HIVE_DATABASE_URL must be set when using the MYSQL database type")
	}
	if !strings.Contains(dbURL, "parseTime=true") {
		panic("HIVE_DATABASE_URL must contain 'parseTime=true' for MySQL")
	}
	if !strings.HasPrefix(dbURL, "mysql://") {
		panic("HIVE_DATABASE_URL must start with 'mysql://' for MySQL")
	}

	slog.Info("Using MySQL database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening MySQL database")
	dbMysql, err := sql.Open("mysql", strings.Replace(dbURL, "mysql://", "", 1))
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbMysql
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func SetupLogger() {
	w := os.Stderr
	_ = slog.New(tint.NewHandler(w, nil))
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
