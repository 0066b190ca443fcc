package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/service"
	"github.com/GintGld/kshana-timeline/internal/service/markers"
	"github.com/GintGld/kshana-timeline/internal/service/source"
)

// Manager keeps the workspaces of the projects under one directory.
type Manager struct {
	log       *slog.Logger
	cfg       Config
	root      string
	storage   StateStorage
	messenger markers.Messenger
	prober    source.Prober

	mu   sync.Mutex
	open map[string]*Workspace
}

func NewManager(
	log *slog.Logger,
	cfg Config,
	root string,
	storage StateStorage,
	messenger markers.Messenger,
	prober source.Prober,
) *Manager {
	return &Manager{
		log:       log,
		cfg:       cfg,
		root:      root,
		storage:   storage,
		messenger: messenger,
		prober:    prober,
		open:      make(map[string]*Workspace),
	}
}

// ProjectInfo is a project directory and whether it is open.
type ProjectInfo struct {
	Name string `json:"name"`
	Open bool   `json:"open"`
}

func validName(name string) bool {
	return name != "" &&
		filepath.Base(name) == name &&
		!strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`)
}

// Projects lists project directories.
func (m *Manager) Projects() ([]ProjectInfo, error) {
	const op = "Manager.Projects"

	entries, err := os.ReadDir(m.root)
	if err != nil {
		m.log.Error("failed to read projects dir", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]ProjectInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !validName(e.Name()) {
			continue
		}
		_, open := m.open[e.Name()]
		res = append(res, ProjectInfo{Name: e.Name(), Open: open})
	}

	return res, nil
}

// Open opens the project or returns it if already open.
func (m *Manager) Open(ctx context.Context, name string) (*Workspace, error) {
	const op = "Manager.Open"

	if !validName(name) {
		return nil, fmt.Errorf("%s: %w", op, service.ErrInvalidProjectName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.open[name]; ok {
		return w, nil
	}

	dir := filepath.Join(m.root, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", op, service.ErrProjectNotFound)
	}

	src := source.New(m.log, dir, m.prober)

	w, err := Open(ctx, m.log, m.cfg, name, src, m.storage, m.messenger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.open[name] = w

	return w, nil
}

// Get returns an open project.
func (m *Manager) Get(name string) (*Workspace, error) {
	const op = "Manager.Get"

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.open[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, service.ErrProjectClosed)
	}

	return w, nil
}

func (m *Manager) Close(ctx context.Context, name string) error {
	const op = "Manager.Close"

	m.mu.Lock()
	w, ok := m.open[name]
	delete(m.open, name)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", op, service.ErrProjectClosed)
	}

	if err := w.Close(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CloseAll closes every open project.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	names := make([]string, 0, len(m.open))
	for name := range m.open {
		names = append(names, name)
	}
	m.mu.Unlock()

	slices.Sort(names)

	var errs []error
	for _, name := range names {
		if err := m.Close(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
