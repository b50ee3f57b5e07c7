package maven

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"deptree/pkg/cache"
	"deptree/pkg/source"
)

const guavaPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.google.guava</groupId>
  <artifactId>guava</artifactId>
  <version>33.0.0-jre</version>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>failureaccess</artifactId>
      <version>1.0.2</version>
    </dependency>
    <dependency>
      <groupId>com.google.code.findbugs</groupId>
      <artifactId>jsr305</artifactId>
    </dependency>
    <dependency>
      <groupId></groupId>
      <artifactId>orphan</artifactId>
      <version>1.0</version>
    </dependency>
  </dependencies>
</project>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, cache.NewNullCache(), time.Minute)
}

func TestResolve(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(guavaPOM))
	})

	deps, err := c.Resolve(context.Background(), "com.google.guava:guava:33.0.0-jre")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	wantPath := "/com/google/guava/guava/33.0.0-jre/guava-33.0.0-jre.pom"
	if gotPath != wantPath {
		t.Errorf("fetched %s, want %s", gotPath, wantPath)
	}

	// The entry without a version gets "unknown"; the one without a group
	// is dropped.
	want := []string{
		"com.google.guava:failureaccess:1.0.2",
		"com.google.code.findbugs:jsr305:unknown",
	}
	if !slices.Equal(deps, want) {
		t.Errorf("Resolve = %v, want %v", deps, want)
	}
}

func TestResolveNoDependencies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<project><modelVersion>4.0.0</modelVersion></project>`))
	})

	deps, err := c.Resolve(context.Background(), "org.example:leaf:1.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("Resolve = %v, want empty", deps)
	}
}

func TestResolveNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.Resolve(context.Background(), "org.example:missing:1.0")
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestResolveServerErrorIsRetried(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`<project></project>`))
	})

	deps, err := c.Resolve(context.Background(), "org.example:flaky:1.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("Resolve = %v, want empty", deps)
	}
	if calls != 2 {
		t.Errorf("server hit %d times, want 2", calls)
	}
}

func TestResolveInvalidXML(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not XML`))
	})

	if _, err := c.Resolve(context.Background(), "org.example:broken:1.0"); err == nil {
		t.Error("expected error for invalid POM")
	}
}

func TestResolveInvalidCoordinate(t *testing.T) {
	c := New("", cache.NewNullCache(), time.Minute)
	if _, err := c.Resolve(context.Background(), "not-a-coordinate"); err == nil {
		t.Error("expected error for malformed coordinate")
	}
}

func TestResolveCaches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(guavaPOM))
	}))
	t.Cleanup(srv.Close)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	c := New(srv.URL, fc, time.Minute)
	defer c.Close()

	ctx := context.Background()
	first, err := c.Resolve(ctx, "com.google.guava:guava:33.0.0-jre")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := c.Resolve(ctx, "com.google.guava:guava:33.0.0-jre")
	if err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}

	if calls != 1 {
		t.Errorf("server hit %d times, want 1", calls)
	}
	if !slices.Equal(first, second) {
		t.Errorf("cached result %v != fresh result %v", second, first)
	}
}

func TestPOMURL(t *testing.T) {
	c := New("https://repo.example.com/maven2/", cache.NewNullCache(), 0)

	url, err := c.POMURL("io.netty:netty-common:4.1.100.Final")
	if err != nil {
		t.Fatalf("POMURL: %v", err)
	}
	want := "https://repo.example.com/maven2/io/netty/netty-common/4.1.100.Final/netty-common-4.1.100.Final.pom"
	if url != want {
		t.Errorf("POMURL = %s, want %s", url, want)
	}

	if _, err := c.POMURL("bad"); err == nil {
		t.Error("expected error for malformed coordinate")
	}
}

func TestSplitCoordinate(t *testing.T) {
	tests := []struct {
		id      string
		group   string
		art     string
		version string
		ok      bool
	}{
		{"org.slf4j:slf4j-api:2.0.9", "org.slf4j", "slf4j-api", "2.0.9", true},
		{"a:b:c", "a", "b", "c", true},
		{"a:b", "", "", "", false},
		{"a:b:c:d", "", "", "", false},
		{":b:c", "", "", "", false},
		{"a::c", "", "", "", false},
		{"a:b:", "", "", "", false},
		{"", "", "", "", false},
	}

	for _, tt := range tests {
		group, art, version, err := SplitCoordinate(tt.id)
		if (err == nil) != tt.ok {
			t.Errorf("SplitCoordinate(%q) error = %v, want ok=%v", tt.id, err, tt.ok)
			continue
		}
		if group != tt.group || art != tt.art || version != tt.version {
			t.Errorf("SplitCoordinate(%q) = %q %q %q", tt.id, group, art, version)
		}
		if got := ValidCoordinate(tt.id); got != tt.ok {
			t.Errorf("ValidCoordinate(%q) = %v, want %v", tt.id, got, tt.ok)
		}
	}
}
