package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/vinnodrive/vinnodrive/internal/db"
	"github.com/vinnodrive/vinnodrive/internal/markdown"
	"github.com/vinnodrive/vinnodrive/internal/metrics"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/ratelimit"
	"github.com/vinnodrive/vinnodrive/internal/repository"
	"github.com/vinnodrive/vinnodrive/internal/storage"
)

type testEnv struct {
	db       *sqlx.DB
	files    repository.FileRepository
	users    repository.UserRepository
	shares   repository.ShareRepository
	store    storage.Storage
	stager   *storage.Stager
	usage    *UsageService
	uploads  *UploadService
	fileSvc  *FileService
	shareSvc *ShareService
	preview  *PreviewService
}

type envOptions struct {
	quota    int64
	cooldown time.Duration
	wrap     func(storage.Storage) storage.Storage
}

func withQuota(q int64) func(*envOptions) {
	return func(o *envOptions) { o.quota = q }
}

func withCooldown(d time.Duration) func(*envOptions) {
	return func(o *envOptions) { o.cooldown = d }
}

func withStorage(wrap func(storage.Storage) storage.Storage) func(*envOptions) {
	return func(o *envOptions) { o.wrap = wrap }
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()

	o := &envOptions{quota: 1 << 20}
	for _, opt := range opts {
		opt(o)
	}

	dir := t.TempDir()
	dsn := filepath.Join(dir, "test.db") + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"

	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), database.DB, "sqlite"))

	local, err := storage.NewLocalStorage(filepath.Join(dir, "storage"))
	require.NoError(t, err)
	var store storage.Storage = local
	if o.wrap != nil {
		store = o.wrap(local)
	}

	stager, err := storage.NewStager(filepath.Join(dir, "storage", "staging"))
	require.NoError(t, err)

	m := metrics.Init(prometheus.NewRegistry())
	locks := NewUserLocks()

	fileRepo := repository.NewFileRepository(database)
	userRepo := repository.NewUserRepository(database)
	shareRepo := repository.NewShareRepository(database)

	usage := NewUsageService(fileRepo, userRepo, o.quota)
	shareSvc := NewShareService(fileRepo, shareRepo, userRepo)
	fileSvc := NewFileService(database, fileRepo, shareSvc, store, locks, m)

	return &testEnv{
		db:       database,
		files:    fileRepo,
		users:    userRepo,
		shares:   shareRepo,
		store:    store,
		stager:   stager,
		usage:    usage,
		uploads:  NewUploadService(database, fileRepo, usage, store, stager, ratelimit.NewCooldown(o.cooldown), locks, m),
		fileSvc:  fileSvc,
		shareSvc: shareSvc,
		preview:  NewPreviewService(fileSvc, markdown.NewRenderer()),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) upload(t *testing.T, userID int64, folder string, files ...UploadFile) *UploadReport {
	t.Helper()
	return e.uploads.Upload(context.Background(), userID, folder, files)
}

// mustUpload uploads and fails the test on a batch error.
func (e *testEnv) mustUpload(t *testing.T, userID int64, folder string, files ...UploadFile) *UploadReport {
	t.Helper()
	report := e.upload(t, userID, folder, files...)
	require.Nil(t, report.Error, "unexpected batch error: %v", report.Error)
	require.Len(t, report.Files, len(files))
	return report
}

func (e *testEnv) usageOf(t *testing.T, userID int64) *model.Usage {
	t.Helper()
	usage, err := e.usage.Usage(context.Background(), userID)
	require.NoError(t, err)
	return usage
}

func (e *testEnv) record(t *testing.T, id int64) *model.File {
	t.Helper()
	file, err := e.files.ByID(context.Background(), id)
	require.NoError(t, err)
	return file
}

func (e *testEnv) objectExists(t *testing.T, key string) bool {
	t.Helper()
	exists, err := e.store.Exists(context.Background(), key)
	require.NoError(t, err)
	return exists
}

func (e *testEnv) stagingEntries(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.stager.Dir())
	require.NoError(t, err)
	return len(entries)
}

func (e *testEnv) read(t *testing.T, userID, fileID int64) string {
	t.Helper()
	_, rc, err := e.fileSvc.Download(context.Background(), userID, fileID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func file(name, content string) UploadFile {
	return UploadFile{Name: name, Content: strings.NewReader(content)}
}

var errInjected = errors.New("injected storage failure")

// flakyStorage fails Put after a number of successful calls, or every Remove.
type flakyStorage struct {
	storage.Storage

	mu         sync.Mutex
	putsLeft   int
	failPuts   bool
	failRemove bool
	removed    []string
}

func (s *flakyStorage) Put(ctx context.Context, stagedPath, key string) (bool, error) {
	s.mu.Lock()
	if s.failPuts {
		if s.putsLeft == 0 {
			s.mu.Unlock()
			return false, errInjected
		}
		s.putsLeft--
	}
	s.mu.Unlock()
	return s.Storage.Put(ctx, stagedPath, key)
}

func (s *flakyStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
	if s.failRemove {
		return fmt.Errorf("remove %s: %w", key, errInjected)
	}
	return s.Storage.Remove(ctx, key)
}
