package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/pflag"

	apperrors "deptree/pkg/errors"
	"deptree/pkg/filter"
	"deptree/pkg/graph"
	"deptree/pkg/source"
	"deptree/pkg/source/fixture"
	"deptree/pkg/source/maven"
	"deptree/pkg/tree"
)

// Test modes selecting the dependency source.
const (
	testModeFile = "file"
	testModeURL  = "url"
)

// separatorWidth is the width of the "=" rule under the tree header.
const separatorWidth = 60

// fixturePackageRe matches valid root packages in file mode: uppercase Latin
// letters only (e.g. "A", "B", "LIBC").
var fixturePackageRe = regexp.MustCompile(`^[A-Z]+$`)

// rootOpts holds the command-line flags for the root command.
type rootOpts struct {
	pkg       string // root package identifier
	repo      string // repository URL (url mode) or fixture path (file mode)
	testMode  string // "file" or "url"
	asciiTree bool   // render the full tree instead of direct dependencies
	summary   bool   // with asciiTree: also print direct deps, from one fetch pass
	filterStr string // exclusion substring
	maxDepth  int    // traversal depth limit (0 = config/builtin default)
	maxNodes  int    // traversal node limit (0 = config/builtin default)
	noCache   bool   // disable the response cache
}

func newRootOpts() *rootOpts {
	return &rootOpts{}
}

func (o *rootOpts) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.pkg, "package", "", "root package to analyze")
	flags.StringVar(&o.repo, "repo", "", "repository URL (url mode) or test graph JSON path (file mode)")
	flags.StringVar(&o.testMode, "test-mode", testModeURL, "dependency source: 'file' (local test graph) or 'url' (Maven repository)")
	flags.BoolVar(&o.asciiTree, "ascii-tree", false, "render the full dependency tree")
	flags.BoolVar(&o.summary, "summary", false, "with --ascii-tree: also list direct dependencies from the same fetch pass")
	flags.StringVar(&o.filterStr, "filter", "", "exclude packages containing this substring")
	flags.IntVar(&o.maxDepth, "max-depth", 0, "maximum dependency depth (default 50)")
	flags.IntVar(&o.maxNodes, "max-nodes", 0, "maximum packages to visit (default 5000)")
	flags.BoolVar(&o.noCache, "no-cache", false, "disable the response cache")
}

// rootRun dispatches a validated invocation to one of the three output
// modes: direct dependencies, live tree, or graph-backed summary plus tree.
//
// Failure policy: validation errors and a failed root resolution in direct
// mode are fatal; once a tree is being rendered, descendant failures are
// absorbed by the renderer and never change the exit code.
func (c *CLI) rootRun(ctx context.Context, opts *rootOpts) error {
	logger := loggerFromContext(ctx)

	src, closeSource, err := c.openSource(ctx, opts.pkg, opts.repo, opts.testMode, opts.noCache)
	if err != nil {
		return err
	}
	defer closeSource()

	f := filter.Substring(opts.filterStr)
	if f.IsZero() {
		f = filter.Substring(c.Config.Filter)
	}

	if !opts.asciiTree {
		return c.runDirectDeps(ctx, opts, src)
	}

	if opts.summary {
		return c.runSummaryTree(ctx, opts, src, f)
	}

	// Live tree: each node is resolved on visit. Lookup failures below the
	// root degrade to leaves inside the renderer.
	fmt.Printf("Dependency tree for '%s':\n", opts.pkg)
	fmt.Println(strings.Repeat("=", separatorWidth))
	lookup := func(id string) ([]string, error) {
		deps, err := src.Resolve(ctx, id)
		if err != nil {
			logger.Debugf("resolve failed: %s: %v", id, err)
		}
		return deps, err
	}
	return tree.Render(os.Stdout, opts.pkg, lookup, f)
}

// runDirectDeps resolves the root once and lists its direct dependencies.
// This is the one place a resolution failure is fatal: there is no partial
// result to fall back to.
func (c *CLI) runDirectDeps(ctx context.Context, opts *rootOpts, src source.Source) error {
	var sp *Spinner
	if opts.testMode == testModeURL {
		sp = newSpinner(ctx, "Fetching "+opts.pkg+"...")
		sp.Start()
	}
	deps, err := src.Resolve(ctx, opts.pkg)
	if sp != nil {
		if err != nil {
			sp.StopWithError("Failed to fetch " + opts.pkg)
		} else {
			sp.Stop()
		}
	}
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return apperrors.Wrap(apperrors.ErrCodePackageNotFound, err, "cannot resolve %s", opts.pkg)
		}
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "cannot resolve %s", opts.pkg)
	}

	fmt.Println("Direct dependencies:")
	if len(deps) == 0 {
		fmt.Println("  (none)")
		return nil
	}
	for _, dep := range deps {
		fmt.Printf("  %s\n", dep)
	}
	return nil
}

// runSummaryTree materializes the graph once, then serves both the direct
// dependency listing and the tree from the in-memory graph, so the
// repository is hit at most once per package.
func (c *CLI) runSummaryTree(ctx context.Context, opts *rootOpts, src source.Source, f filter.Substring) error {
	logger := loggerFromContext(ctx)

	var sp *Spinner
	if opts.testMode == testModeURL {
		sp = newSpinner(ctx, "Resolving dependency graph...")
		sp.Start()
	}

	maxNodes := c.pickLimit(opts.maxNodes, c.Config.MaxNodes)
	prog := newProgress(logger)
	g := graph.Build(ctx, opts.pkg, src.Resolve, graph.Options{
		MaxDepth: c.pickLimit(opts.maxDepth, c.Config.MaxDepth),
		MaxNodes: maxNodes,
		Filter:   f,
		Logger:   logger.Warnf,
	})
	if sp != nil {
		sp.Stop()
	}
	prog.done(fmt.Sprintf("Resolved %d packages with %d dependencies", g.Len(), g.EdgeCount()))
	warnNodeLimit(g, maxNodes)

	fmt.Println("Direct dependencies:")
	deps := g.Deps(opts.pkg)
	if len(deps) == 0 {
		fmt.Println("  (none)")
	}
	for _, dep := range deps {
		fmt.Printf("  %s\n", dep)
	}

	fmt.Println()
	fmt.Printf("Dependency tree for '%s':\n", opts.pkg)
	fmt.Println(strings.Repeat("=", separatorWidth))
	return tree.Render(os.Stdout, opts.pkg, g.Lookup, f)
}

// warnNodeLimit notes when a traversal stopped at the node cap, since the
// resulting graph is truncated rather than complete.
func warnNodeLimit(g *graph.Graph, maxNodes int) {
	limit := cmp.Or(maxNodes, graph.DefaultMaxNodes)
	if g.Len() >= limit {
		printWarning("Stopped at %d packages; raise --max-nodes for a complete graph", g.Len())
	}
}

// pickLimit prefers the flag value, then the config value, then zero so the
// builder applies its builtin default.
func (c *CLI) pickLimit(flagVal, cfgVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}

// openSource validates an invocation and constructs the dependency source
// for it. The returned close function releases the response cache, if any.
func (c *CLI) openSource(ctx context.Context, pkg, repo, testMode string, noCache bool) (source.Source, func(), error) {
	noop := func() {}

	switch testMode {
	case testModeFile:
		fx, err := c.openFixture(pkg, repo)
		return fx, noop, err

	case testModeURL:
		mc, err := c.openMaven(ctx, pkg, repo, noCache)
		if err != nil {
			return nil, noop, err
		}
		return mc, func() { _ = mc.Close() }, nil

	default:
		return nil, noop, apperrors.New(apperrors.ErrCodeInvalidMode,
			"invalid --test-mode %q (expected 'file' or 'url')", testMode)
	}
}

// openFixture validates file-mode inputs and loads the test graph.
func (c *CLI) openFixture(pkg, path string) (*fixture.Source, error) {
	if !fixturePackageRe.MatchString(pkg) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidPackage,
			"in test mode, package must be uppercase Latin letters (e.g., A, B)")
	}
	if path == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRepo,
			"--repo must point to a test graph JSON file in file mode")
	}
	fx, err := fixture.Load(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "cannot load test graph")
	}
	if !fx.Has(pkg) {
		return nil, apperrors.New(apperrors.ErrCodePackageNotFound,
			"package %q not found in test graph", pkg)
	}
	return fx, nil
}

// openMaven validates url-mode inputs and constructs the Maven client.
func (c *CLI) openMaven(ctx context.Context, pkg, repo string, noCache bool) (*maven.Client, error) {
	if !maven.ValidCoordinate(pkg) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidPackage,
			"in url mode, package must be 'groupId:artifactId:version'")
	}
	if repo == "" {
		repo = c.Config.Repo
	}
	if err := validateRepoURL(repo); err != nil {
		return nil, err
	}
	responseCache := c.newCache(ctx, noCache)
	return maven.New(repo, responseCache, c.Config.Cache.TTLValue()), nil
}

// validateRepoURL requires an absolute http(s) URL.
func validateRepoURL(repo string) error {
	u, err := url.Parse(repo)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRepo, "invalid repository URL: %s", repo)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.New(apperrors.ErrCodeInvalidRepo, "invalid repository URL: %s", repo)
	}
	return nil
}
