package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rmontanez/chequeo/internal/cache"
)

func TestExtractReadableText(t *testing.T) {
	page := `
	<html>
	<head><title>Vacunas: lo que dice la evidencia</title>
	<script>var x = "ruido";</script></head>
	<body>
		<nav>menú del sitio</nav>
		<p>Las vacunas son seguras según los estudios disponibles.</p>
		<style>.x{}</style>
		<footer>pie de página</footer>
	</body>
	</html>`

	title, text, err := ExtractReadableText(page)
	if err != nil {
		t.Fatalf("ExtractReadableText: %v", err)
	}
	if title != "Vacunas: lo que dice la evidencia" {
		t.Errorf("Unexpected title %q", title)
	}
	if !strings.Contains(text, "vacunas son seguras") {
		t.Errorf("Expected body text, got %q", text)
	}
	if strings.Contains(text, "ruido") || strings.Contains(text, "menú del sitio") {
		t.Errorf("Script/nav text leaked into %q", text)
	}
}

func TestArticleText_FetchesAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits++
		_, _ = w.Write([]byte(`<html><head><title>Nota</title></head><body><p>contenido de la nota</p></body></html>`))
	}))
	defer srv.Close()

	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "chequeo/1.0", MaxBodyBytes: 1 << 20}, mem)

	text, err := f.ArticleText(context.Background(), srv.URL+"/nota")
	if err != nil {
		t.Fatalf("ArticleText: %v", err)
	}
	if !strings.Contains(text, "contenido de la nota") {
		t.Errorf("Unexpected text %q", text)
	}

	if _, err := f.ArticleText(context.Background(), srv.URL+"/nota"); err != nil {
		t.Fatalf("Cached ArticleText: %v", err)
	}
	if hits != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", hits)
	}
}

func TestArticleText_RespectsRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /privado/\n"))
			return
		}
		_, _ = w.Write([]byte(`<html><body>secreto</body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "chequeo/1.0", MaxBodyBytes: 1 << 20}, nil)

	if _, err := f.ArticleText(context.Background(), srv.URL+"/privado/nota"); err == nil {
		t.Error("Expected robots.txt to block the fetch")
	}
}

func TestArticleText_RejectsBadURLs(t *testing.T) {
	f := NewFetcher(Options{Timeout: time.Second, UserAgent: "chequeo/1.0", MaxBodyBytes: 1 << 20}, nil)

	for _, raw := range []string{"ftp://example.com/x", "no es una url"} {
		if _, err := f.ArticleText(context.Background(), raw); err == nil {
			t.Errorf("ArticleText(%q): expected error", raw)
		}
	}
}

func TestArticleText_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, UserAgent: "chequeo/1.0", MaxBodyBytes: 1 << 20}, nil)
	if _, err := f.ArticleText(context.Background(), srv.URL+"/caida"); err == nil {
		t.Error("Expected error for 500 response")
	}
}
