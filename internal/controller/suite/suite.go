// Package suite sets up controllers over real projects for tests.
package suite

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gavv/httpexpect/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/kshana-timeline/internal/client/messenger"
	jwtController "github.com/GintGld/kshana-timeline/internal/controller/jwt"
	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
	"github.com/GintGld/kshana-timeline/internal/lib/retry"
	"github.com/GintGld/kshana-timeline/internal/models"
	jwtService "github.com/GintGld/kshana-timeline/internal/service/jwt"
	"github.com/GintGld/kshana-timeline/internal/service/source"
	"github.com/GintGld/kshana-timeline/internal/service/workspace"
	"github.com/GintGld/kshana-timeline/internal/storage/sqlite"
)

const Project = "harbour"

// Placements: image 1 [0,10], video 2 [10,20], infographic 3 [25,30],
// 40s of transcript.
const Placements = `{
	"transcriptDurationSeconds": 40,
	"image": [{"placementNumber": 1, "startTime": "00:00:00", "endTime": "00:00:10", "prompt": "harbour at dawn"}],
	"video": [{"placementNumber": 2, "startTime": "00:00:10", "endTime": "00:00:20", "prompt": "drone over the bay"}],
	"infographic": [{"placementNumber": 3, "startTime": "00:00:25", "endTime": "00:00:30", "prompt": "tonnage by year"}]
}`

var Config = workspace.Config{
	MinDuration:      10,
	MinImageDuration: 1,
	UndoCapacity:     10,
	PlaybackTick:     5 * time.Millisecond,
	WatchSettle:      10 * time.Millisecond,
	Resolver:         retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	Persist:          retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	Debounce:         10 * time.Millisecond,
}

type fixedProber struct{}

func (fixedProber) Duration(context.Context, string) (float64, error) {
	return 7, nil
}

type Suite struct {
	Root     string
	Storage  *sqlite.Storage
	Manager  *workspace.Manager
	Secret   []byte
	JWT      *jwtController.JWT
	TokenTTL time.Duration
}

// New creates a projects directory with one project and an empty
// database.
func New(t *testing.T) *Suite {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, Project)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, source.PlacementsFile), []byte(Placements), 0o644))

	dbPath := filepath.Join(t.TempDir(), "timeline.db")
	_, err := sqlite.Migrate(dbPath, "")
	require.NoError(t, err)

	st, err := sqlite.New(dbPath)
	require.NoError(t, err)

	log := slogdiscard.NewDiscardLogger()
	m := workspace.NewManager(log, Config, root, st, messenger.NewLog(log), fixedProber{})

	t.Cleanup(func() {
		_ = m.CloseAll(context.Background())
		_ = st.Stop()
	})

	secret := []byte(gofakeit.Password(true, true, true, false, false, 32))

	return &Suite{
		Root:     root,
		Storage:  st,
		Manager:  m,
		Secret:   secret,
		JWT:      jwtController.New(secret),
		TokenTTL: time.Hour,
	}
}

// OpenProject opens the sample project.
func (s *Suite) OpenProject(t *testing.T) *workspace.Workspace {
	t.Helper()

	w, err := s.Manager.Open(context.Background(), Project)
	require.NoError(t, err)
	return w
}

// Token returns a valid bearer token.
func (s *Suite) Token(t *testing.T) string {
	t.Helper()

	token, err := jwtService.New(s.Secret).NewToken(models.RootLogin, s.TokenTTL)
	require.NoError(t, err)
	return token
}

// Expect serves app in-process.
func Expect(t *testing.T, app *fiber.App) *httpexpect.Expect {
	return httpexpect.WithConfig(httpexpect.Config{
		BaseURL: "http://timeline.local",
		Client: &http.Client{
			Transport: httpexpect.NewBinder(adaptor.FiberApp(app)),
			Jar:       httpexpect.NewCookieJar(),
		},
		Reporter: httpexpect.NewAssertReporter(t),
		Printers: []httpexpect.Printer{
			httpexpect.NewCompactPrinter(t),
		},
	})
}

// Authorized adds the bearer token to every request.
func (s *Suite) Authorized(t *testing.T, app *fiber.App) *httpexpect.Expect {
	token := s.Token(t)
	return Expect(t, app).Builder(func(req *httpexpect.Request) {
		req.WithHeader(fiber.HeaderAuthorization, "Bearer "+token)
	})
}
