package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"novatask/internal/auth"
	"novatask/internal/blobstore"
	"novatask/internal/config"
	"novatask/internal/store"
)

const (
	allowRemoteEnvKey = "NOVATASK_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
)

// Store is the persistence the server needs.
type Store interface {
	store.TaskStore
	store.UserStore
	StoreInfo(ctx context.Context) (store.Info, error)
}

// Options carries the runtime settings the server reads from config.
type Options struct {
	IDPrefix          string
	Projects          []string
	DefaultVerifier   string
	AvatarBaseURL     string
	AllowedMediaTypes []string
	Tokens            *auth.TokenVerifier
}

// OptionsFromConfig copies server settings out of cfg.
func OptionsFromConfig(cfg *config.Config, apiToken string) Options {
	return Options{
		IDPrefix:          cfg.IDPrefix,
		Projects:          cfg.Projects,
		DefaultVerifier:   cfg.DefaultVerifier,
		AvatarBaseURL:     cfg.AvatarBaseURL,
		AllowedMediaTypes: cfg.Images.AllowedMediaTypes,
		Tokens:            auth.NewTokenVerifier(apiToken, cfg.APITokenHash),
	}
}

// Server wraps HTTP handlers for the novatask API.
type Server struct {
	addr     string
	store    Store
	idPrefix string
	projects []string
	service  *TaskService
	users    *UserService
	images   *ImageService
	tokens   *auth.TokenVerifier
	logger   *slog.Logger
	http     *http.Server
}

// New creates a new server instance. blobs may be nil, which disables image uploads.
func New(addr string, st Store, blobs blobstore.BlobStore, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.IDPrefix == "" {
		opts.IDPrefix = config.DefaultIDPrefix
	}
	if len(opts.Projects) == 0 {
		opts.Projects = config.DefaultProjects
	}

	users := NewUserService(st, opts.AvatarBaseURL)
	service := NewTaskService(st, users, opts.IDPrefix, opts.Projects, opts.DefaultVerifier)

	var images *ImageService
	if blobs != nil {
		images = NewImageService(blobs, service, opts.AllowedMediaTypes)
	}

	return &Server{
		addr:     addr,
		store:    st,
		idPrefix: opts.IDPrefix,
		projects: opts.Projects,
		service:  service,
		users:    users,
		images:   images,
		tokens:   opts.Tokens,
		logger:   logger,
	}
}

// Seed creates configured users that are missing, then the demo tasks when
// no task exists yet.
func (s *Server) Seed(ctx context.Context, users []config.UserSeed, tasks []config.TaskSeed) error {
	created, err := s.users.Seed(ctx, users)
	if err != nil {
		return err
	}
	if created > 0 {
		s.log().Info("seeded users", "created", created)
	}
	created, err = s.service.Seed(ctx, tasks)
	if err != nil {
		return err
	}
	if created > 0 {
		s.log().Info("seeded tasks", "created", created)
	}
	return nil
}

// ListenAndServe starts the HTTP server and blocks until it stops.
// A stop requested through Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the routed, authenticated and logged API handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.log().Info("stopping server", "addr", s.addr)
	return s.http.Shutdown(ctx)
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
