package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quizmaster/quizmaster/internal/attempt"
	"github.com/quizmaster/quizmaster/internal/catalog"
	"github.com/quizmaster/quizmaster/internal/httpapi"
	appI18n "github.com/quizmaster/quizmaster/internal/i18n"
	"github.com/quizmaster/quizmaster/internal/identity"
	"github.com/quizmaster/quizmaster/internal/kv"
	"github.com/quizmaster/quizmaster/internal/model"
)

const importKeyPrefix = "quizmaster:import:"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizmaster",
		Short: "Browser-based quiz platform",
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizmaster --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("store", "s", "sqlite", "Storage backend (memory, sqlite, redis)")
	f.String("db", "quizmaster.db", "SQLite database path")
	f.String("redis-addr", "localhost:6379", "Redis server address")
	f.Int("redis-db", 0, "Redis database number")
	f.String("redis-prefix", "quizmaster", "Key prefix in Redis")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	addStoreFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.IntP("seconds-per-question", "n", attempt.SecondsPerQuestion, "Seconds granted per quiz question")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [files...]",
		Short: "Import quizzes from JSON files into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSeed,
	}
	addStoreFlags(cmd)
	f := cmd.Flags()
	f.String("author-name", "Quizmaster", "Display name for the seed account")
	f.String("author-email", "seed@quizmaster.local", "Email of the seed account")
	f.String("author-password", "", "Password for the seed account (required when the account does not exist yet)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the quiz catalog as JSON",
		RunE:  runExport,
	}
	addStoreFlags(cmd)
	f := cmd.Flags()
	f.Bool("accounts", false, "Include registered accounts (passwords redacted)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZMASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizmaster")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizmaster")
	v.AddConfigPath("/etc/quizmaster")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(v *viper.Viper) (kv.Store, error) {
	return kv.Open(kv.Config{
		Backend:     v.GetString("store"),
		SQLitePath:  v.GetString("db"),
		RedisAddr:   v.GetString("redis-addr"),
		RedisDB:     v.GetInt("redis-db"),
		RedisPrefix: v.GetString("redis-prefix"),
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	store, err := openStore(v)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Cancelling this context stops every running attempt countdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := identity.New(store)
	cat := catalog.New(store, ids)
	attempts := attempt.NewRegistry()
	attempts.SetQuestionBudget(v.GetInt("seconds-per-question"))

	h := httpapi.New(ctx, ids, cat, attempts)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("starting server",
		"addr", addr,
		"store", v.GetString("store"),
		"lang", lang,
	)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	store, err := openStore(v)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	ids := identity.New(store)
	cat := catalog.New(store, ids)

	authorID, err := seedAuthor(ctx, ids,
		v.GetString("author-name"),
		v.GetString("author-email"),
		v.GetString("author-password"),
	)
	if err != nil {
		return fmt.Errorf("seed author: %w", err)
	}

	for _, path := range args {
		if err := importQuizzes(ctx, store, cat, authorID, path); err != nil {
			return err
		}
	}
	return nil
}

// importQuizzes loads one drafts file into the catalog. A file is imported
// at most once: its sha256 is recorded, unchanged files are skipped, and a
// file that changed since its import is skipped with a warning so existing
// quizzes are not duplicated under new IDs.
func importQuizzes(ctx context.Context, store kv.Store, cat *catalog.Catalog, authorID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, _, err := store.Get(ctx, importKeyPrefix+path)
	if err != nil {
		return fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("quiz file unchanged, skipping", "path", path)
		return nil
	}
	if storedHash != "" {
		slog.Warn("quiz file changed since last import, skipping to avoid duplicate quizzes", "path", path)
		return nil
	}

	var drafts []model.QuizDraft
	if err := json.Unmarshal(data, &drafts); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for i, draft := range drafts {
		draft.CreatedBy = authorID
		if _, err := cat.Create(ctx, draft); err != nil {
			return fmt.Errorf("import quiz %d from %s: %w", i+1, path, err)
		}
	}

	if err := store.Set(ctx, importKeyPrefix+path, hash); err != nil {
		return fmt.Errorf("record import for %s: %w", path, err)
	}
	slog.Info("imported quizzes", "path", path, "count", len(drafts))
	return nil
}

// seedAuthor returns the account ID the imported quizzes are attributed to,
// registering the account on first use.
func seedAuthor(ctx context.Context, ids *identity.Store, name, email, password string) (string, error) {
	accounts, err := ids.Accounts(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range accounts {
		if a.Email == email {
			return a.ID, nil
		}
	}

	if password == "" {
		return "", fmt.Errorf("seed account %s does not exist: set --author-password or QUIZMASTER_AUTHOR_PASSWORD", email)
	}

	id, err := ids.Register(ctx, name, email, password)
	if err != nil {
		return "", err
	}
	// Registering logs the account in; a seed run should not leave a session behind.
	if err := ids.Logout(ctx); err != nil {
		return "", err
	}
	slog.Info("created seed account", "email", email)
	return id.ID, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	store, err := openStore(v)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	ids := identity.New(store)
	cat := catalog.New(store, ids)

	quizzes, err := cat.All(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	export := model.CatalogExport{
		ExportedAt: time.Now().UTC(),
		QuizCount:  len(quizzes),
		Quizzes:    quizzes,
	}
	if export.Quizzes == nil {
		export.Quizzes = []model.Quiz{}
	}

	if v.GetBool("accounts") {
		accounts, err := ids.Accounts(ctx)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		for _, a := range accounts {
			export.Accounts = append(export.Accounts, model.ExportAccount(a))
		}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
