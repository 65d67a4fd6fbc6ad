package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/store"
)

type fakeReader struct {
	pages map[string]string
}

func (f *fakeReader) Article(_ context.Context, rawURL string) (string, string, error) {
	text, ok := f.pages[rawURL]
	if !ok {
		return "", "", errors.New("not found")
	}
	return "Título", text, nil
}

type fakeStore struct {
	mu      sync.Mutex
	items   []model.ContentItem
	sources []model.Source
}

func (f *fakeStore) InsertContentItem(_ context.Context, item model.ContentItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	return int64(len(f.items)), nil
}

func (f *fakeStore) InsertSource(_ context.Context, src model.Source) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src.ID = int64(len(f.sources) + 1)
	f.sources = append(f.sources, src)
	return src.ID, nil
}

func (f *fakeStore) SourceByName(_ context.Context, name string) (*model.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sources {
		if f.sources[i].Name == name {
			return &f.sources[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func TestRun_IngestsAllURLs(t *testing.T) {
	reader := &fakeReader{pages: map[string]string{
		"https://noticias.example.com/a": "cuerpo a",
		"https://noticias.example.com/b": "cuerpo b",
		"https://otra.example.org/c":     "cuerpo c",
	}}
	st := &fakeStore{}

	ing := New(st, reader, 2, nil)
	results := ing.Run(context.Background(), []string{
		"https://noticias.example.com/a",
		"https://noticias.example.com/b",
		"https://otra.example.org/c",
	})

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Ingest %s failed: %v", r.URL, r.Err)
		}
	}
	if len(st.items) != 3 {
		t.Errorf("Expected 3 stored items, got %d", len(st.items))
	}
	// Two distinct hosts means exactly two source rows.
	if len(st.sources) != 2 {
		t.Errorf("Expected 2 sources, got %d", len(st.sources))
	}
}

func TestRun_ReportsFailuresWithoutStopping(t *testing.T) {
	reader := &fakeReader{pages: map[string]string{
		"https://ok.example.com/a": "cuerpo",
	}}
	st := &fakeStore{}

	ing := New(st, reader, 1, nil)
	results := ing.Run(context.Background(), []string{
		"https://ok.example.com/a",
		"https://caida.example.com/b",
	})

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 1 {
		t.Errorf("Expected 1 failure and 1 success, got %d/%d", failed, succeeded)
	}
}

func TestSourceReliability(t *testing.T) {
	tests := []struct {
		url      string
		want     float64
		verified bool
	}{
		{"https://www.who.int/es/news/item/1", 0.95, true},
		{"https://www.salud.gob.mx/aviso", 0.95, true},
		{"https://cdc.gov/covid", 0.95, true},
		{"https://chequeado.com/nota", 0.75, true},
		{"https://www.maldita.es/nota", 0.75, true},
		{"https://blog.example.com/opinion", 0.4, false},
		{"no es una url", 0.4, false},
	}
	for _, tt := range tests {
		got, verified := SourceReliability(tt.url)
		if got != tt.want || verified != tt.verified {
			t.Errorf("SourceReliability(%q) = %v/%v, want %v/%v",
				tt.url, got, verified, tt.want, tt.verified)
		}
	}
}
