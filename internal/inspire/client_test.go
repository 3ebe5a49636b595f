package inspire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchFixture = `{
  "hits": {
    "total": 3,
    "hits": [
      {
        "id": "1790227",
        "links": {"bibtex": "%[1]s/bib/1790227"},
        "metadata": {
          "control_number": 1790227,
          "texkeys": ["Huss:2020abc", "Huss:2020xyz"],
          "arxiv_eprints": [{"value": "2005.12345", "categories": ["hep-ph"]}],
          "titles": [{"title": "Jets at NNLO"}],
          "authors": [{"full_name": "Huss, Alexander"}, {"full_name": "Doe, Jane"}],
          "author_count": 2,
          "earliest_date": "2020-05-25"
        }
      },
      {
        "id": "1",
        "metadata": {"control_number": 1, "titles": [{"title": "No keys"}]}
      },
      {
        "id": "",
        "metadata": {"control_number": 42, "texkeys": ["Old:1999"], "author_count": 0,
          "authors": [{"full_name": "Old, Author"}]}
      }
    ]
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
}

func TestClient_Query(t *testing.T) {
	var gotQuery, gotSort, gotSize string
	var srvURL string
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/literature" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotSort = r.URL.Query().Get("sort")
		gotSize = r.URL.Query().Get("size")
		fmt.Fprintf(w, searchFixture, srvURL)
	})
	srvURL = srv.URL

	res, err := c.Query(context.Background(), "a Huss and t jets", SortMostCited, 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if gotQuery != "a Huss and t jets" || gotSort != "mostcited" || gotSize != "5" {
		t.Errorf("request params q=%q sort=%q size=%q", gotQuery, gotSort, gotSize)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2 (hit without texkeys dropped)", len(res.Records))
	}

	rec := res.Records[0]
	if rec.Key() != "Huss:2020abc" || !rec.HasKey("Huss:2020xyz") {
		t.Errorf("Keys = %v", rec.Keys)
	}
	if rec.Title != "Jets at NNLO" {
		t.Errorf("Title = %q", rec.Title)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "Huss, Alexander" {
		t.Errorf("Authors = %v", rec.Authors)
	}
	if len(rec.Eprints) != 1 || rec.Eprints[0].Value != "2005.12345" || rec.Eprints[0].PrimaryCategory() != "hep-ph" {
		t.Errorf("Eprints = %v", rec.Eprints)
	}
	if rec.Links[FormatBibTeX] != srv.URL+"/bib/1790227" {
		t.Errorf("bibtex link = %q", rec.Links[FormatBibTeX])
	}

	old := res.Records[1]
	if old.ID != "42" {
		t.Errorf("ID from control number = %q, want 42", old.ID)
	}
	if old.AuthorCount != 1 {
		t.Errorf("AuthorCount = %d, want 1", old.AuthorCount)
	}
}

func TestClient_QueryDefaults(t *testing.T) {
	var gotSort, gotSize string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotSort = r.URL.Query().Get("sort")
		gotSize = r.URL.Query().Get("size")
		fmt.Fprint(w, `{"hits":{"hits":[],"total":0}}`)
	})

	res, err := c.Query(context.Background(), "x", "", 0)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if gotSort != "mostrecent" || gotSize != "10" {
		t.Errorf("sort=%q size=%q, want mostrecent/10", gotSort, gotSize)
	}
	if len(res.Records) != 0 || res.Total != 0 {
		t.Errorf("res = %+v, want empty", res)
	}
}

func TestClient_Retrieve(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "@article{Huss:2020abc,\n    title = \"Jets\"\n}\n")
	})

	rec := Record{Keys: []string{"Huss:2020abc"}, Links: map[string]string{FormatBibTeX: srv.URL + "/bib"}}
	got, err := c.Retrieve(context.Background(), rec, FormatBibTeX)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != "@article{Huss:2020abc,\n    title = \"Jets\"\n}\n" {
		t.Errorf("Retrieve() = %q", got)
	}

	if _, err := c.Retrieve(context.Background(), rec, FormatCV); !errors.Is(err, ErrFormatUnavailable) {
		t.Errorf("Retrieve(cv) error = %v, want ErrFormatUnavailable", err)
	}
}

func TestClient_HTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limited", http.StatusTooManyRequests, IsRateLimited},
		{"not found", http.StatusNotFound, IsNotFound},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.Query(context.Background(), "x", SortMostRecent, 1)
			if err == nil || !tt.check(err) {
				t.Errorf("Query() error = %v", err)
			}
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>")
	})
	_, err := c.Query(context.Background(), "x", SortMostRecent, 1)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Query() error = %v, want ErrInvalidResponse", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.Query(context.Background(), "x", SortMostRecent, 1)
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Query() error = %v, want ErrNetworkError", err)
	}
}

func TestParseSort(t *testing.T) {
	if s, err := ParseSort(""); err != nil || s != SortMostRecent {
		t.Errorf("ParseSort(\"\") = %q, %v", s, err)
	}
	if s, err := ParseSort("mostcited"); err != nil || s != SortMostCited {
		t.Errorf("ParseSort(mostcited) = %q, %v", s, err)
	}
	if _, err := ParseSort("random"); err == nil {
		t.Error("ParseSort(random) should fail")
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range ValidFormats {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFormat("pdf"); err == nil {
		t.Error("ValidateFormat(pdf) should fail")
	}
}
