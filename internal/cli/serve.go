package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apperrors "deptree/pkg/errors"
	"deptree/pkg/filter"
	"deptree/pkg/graph"
	"deptree/pkg/source"
	"deptree/pkg/source/fixture"
	"deptree/pkg/source/maven"
	"deptree/pkg/tree"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	repo     string
	testMode string
	noCache  bool
	maxDepth int
	maxNodes int
}

// serveCommand creates the serve command, which exposes dependency
// resolution over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependency resolution over HTTP",
		Long: `Serve dependency resolution over HTTP.

Endpoints:
  GET /healthz                       liveness probe
  GET /api/v1/deps?package=<id>      direct dependencies as JSON
  GET /api/v1/graph?package=<id>     full graph as a node/edge document
  GET /api/v1/tree?package=<id>      ASCII tree as text/plain

All /api/v1 endpoints accept an optional filter=<substring> parameter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository URL (url mode) or test graph JSON path (file mode)")
	cmd.Flags().StringVar(&opts.testMode, "test-mode", testModeURL, "dependency source: 'file' or 'url'")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum dependency depth (default 50)")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "maximum packages to visit (default 5000)")

	return cmd
}

// runServe constructs the dependency source and runs the HTTP server until
// the command context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	src, closeSource, err := c.openServeSource(ctx, opts)
	if err != nil {
		return err
	}
	defer closeSource()

	addr := opts.addr
	if addr == "" {
		addr = c.Config.Serve.Addr
	}

	srv := &server{
		src:      src,
		logger:   c.Logger,
		maxDepth: c.pickLimit(opts.maxDepth, c.Config.MaxDepth),
		maxNodes: c.pickLimit(opts.maxNodes, c.Config.MaxNodes),
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	c.Logger.Infof("Serving %s source on %s", src.Name(), addr)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openServeSource builds the source for the server. Unlike openSource, no
// root package is validated up front; packages arrive per request.
func (c *CLI) openServeSource(ctx context.Context, opts *serveOpts) (source.Source, func(), error) {
	noop := func() {}

	switch opts.testMode {
	case testModeFile:
		if opts.repo == "" {
			return nil, noop, apperrors.New(apperrors.ErrCodeInvalidRepo,
				"--repo must point to a test graph JSON file in file mode")
		}
		fx, err := fixture.Load(opts.repo)
		if err != nil {
			return nil, noop, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "cannot load test graph")
		}
		return fx, noop, nil

	case testModeURL:
		repo := opts.repo
		if repo == "" {
			repo = c.Config.Repo
		}
		if err := validateRepoURL(repo); err != nil {
			return nil, noop, err
		}
		mc := maven.New(repo, c.newCache(ctx, opts.noCache), c.Config.Cache.TTLValue())
		return mc, func() { _ = mc.Close() }, nil

	default:
		return nil, noop, apperrors.New(apperrors.ErrCodeInvalidMode,
			"invalid --test-mode %q (expected 'file' or 'url')", opts.testMode)
	}
}

// server holds the HTTP API state.
type server struct {
	src      source.Source
	logger   *log.Logger
	maxDepth int
	maxNodes int
}

// router assembles the chi router with request-id and logging middleware.
func (s *server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/deps", s.handleDeps)
		r.Get("/graph", s.handleGraph)
		r.Get("/tree", s.handleTree)
	})

	return r
}

// handleDeps returns the root's direct dependencies. A root resolution
// failure is surfaced here, mirroring the CLI's direct-dependencies mode.
func (s *server) handleDeps(w http.ResponseWriter, r *http.Request) {
	pkg, ok := s.packageParam(w, r)
	if !ok {
		return
	}

	deps, err := s.src.Resolve(r.Context(), pkg)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeError(w, http.StatusNotFound, apperrors.ErrCodePackageNotFound, "package not found: "+pkg)
			return
		}
		writeError(w, http.StatusBadGateway, apperrors.ErrCodeNetwork, "cannot resolve "+pkg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"package": pkg,
		"deps":    deps,
	})
}

// handleGraph builds and returns the full graph. Per-node failures degrade
// to stub nodes, as in the CLI.
func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	pkg, ok := s.packageParam(w, r)
	if !ok {
		return
	}

	g := s.build(r.Context(), pkg, filter.Substring(r.URL.Query().Get("filter")))
	writeJSON(w, http.StatusOK, graph.ToDoc(g))
}

// handleTree builds the graph and renders the ASCII tree from it.
func (s *server) handleTree(w http.ResponseWriter, r *http.Request) {
	pkg, ok := s.packageParam(w, r)
	if !ok {
		return
	}

	f := filter.Substring(r.URL.Query().Get("filter"))
	g := s.build(r.Context(), pkg, f)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = tree.Render(w, pkg, g.Lookup, f)
}

func (s *server) build(ctx context.Context, pkg string, f filter.Substring) *graph.Graph {
	return graph.Build(ctx, pkg, s.src.Resolve, graph.Options{
		MaxDepth: s.maxDepth,
		MaxNodes: s.maxNodes,
		Filter:   f,
		Logger:   s.logger.Warnf,
	})
}

// packageParam extracts and validates the package query parameter.
func (s *server) packageParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	pkg := r.URL.Query().Get("package")
	if pkg == "" {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidPackage, "missing package parameter")
		return "", false
	}
	if s.src.Name() == "maven" && !maven.ValidCoordinate(pkg) {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidPackage,
			"package must be 'groupId:artifactId:version'")
		return "", false
	}
	return pkg, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code apperrors.Code, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
		"code":  string(code),
	})
}

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-ID"

// requestID assigns a UUID to each request unless the client supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// logRequests logs one line per request with status and duration.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Infof("%s %s %d (%s) id=%s",
			r.Method, r.URL.Path, rec.status,
			time.Since(start).Round(time.Millisecond),
			rec.Header().Get(requestIDHeader))
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
