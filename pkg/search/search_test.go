package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const resultsPage = `<html><body>
<a class="result__snippet" href="#">O <b>MEI</b> pode faturar até R$ 81 mil por ano.</a>
<a class="result__snippet" href="#">Alíquotas do Simples Nacional em 2025.</a>
<a class="result__snippet" href="#">Regras de emissão de nota fiscal.</a>
<a class="result__snippet" href="#">Quarto resultado que deve ser ignorado.</a>
</body></html>`

func TestSearchReturnsNumberedSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.FormValue("q"), "brasil regras dados atualizados 2025")
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	c := NewClient(nil)
	c.URL = srv.URL

	got := c.Search(context.Background(), "limite mei")
	assert.Contains(t, got, "1. O MEI pode faturar até R$ 81 mil por ano.")
	assert.Contains(t, got, "2. Alíquotas do Simples Nacional em 2025.")
	assert.Contains(t, got, "3. Regras de emissão de nota fiscal.")
	assert.NotContains(t, got, "Quarto resultado")
}

func TestSearchEmptyOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(nil)
	c.URL = srv.URL

	assert.Empty(t, c.Search(context.Background(), "qualquer coisa"))
}

func TestSearchEmptyWhenNoSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>no results</body></html>"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	c.URL = srv.URL

	assert.Empty(t, c.Search(context.Background(), "x"))
}
