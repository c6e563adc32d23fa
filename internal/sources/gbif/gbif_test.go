package gbif

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkoziy/gbif-sync/internal/models"
	"github.com/mkoziy/gbif-sync/internal/syncerr"
)

// mockLimiter is a no-op limiter for tests.
type mockLimiter struct{}

func (mockLimiter) Wait(_ context.Context) error { return nil }
func (mockLimiter) Allow() bool                  { return true }
func (mockLimiter) Reserve() time.Duration       { return 0 }

const datasetJSON = `{
  "key": "abc123",
  "type": "OCCURRENCE",
  "title": "Vermont Bird Atlas",
  "description": "Breeding bird observations.",
  "doi": "10.15468/abc123",
  "license": "http://creativecommons.org/licenses/by/4.0/legalcode",
  "homepage": "https://val.vtecostudies.org",
  "citation": {"text": "VCE (2024). Vermont Bird Atlas.", "identifier": "10.15468/abc123"},
  "contacts": [
    {"type": "ADMINISTRATIVE_POINT_OF_CONTACT", "address": ["20 Palmer Court", "Suite 2"], "city": "Burlington",
     "province": "VT", "postalCode": "05401", "country": "US", "email": ["info@example.org", "b@example.org"], "phone": ["802-555-0100"]},
    {"type": "ORIGINATOR", "city": "Norwich"}
  ],
  "temporalCoverages": [{"@type": "range", "start": "2003-01-01", "end": "2007-12-31"}, {"@type": "range", "start": "1976-01-01"}],
  "endpoints": [{"key": 1, "type": "DWC_ARCHIVE", "url": "https://ipt.example.org/archive.do?r=atlas"}]
}`

func TestClientFetch(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(datasetJSON))
	}))
	defer ts.Close()

	client := NewClient(mockLimiter{}, ts.URL+"/", time.Second)
	ds, status, err := client.Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if gotPath != "/v1/dataset/abc123" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if ds.Type != models.DatasetOccurrence || len(ds.Contacts) != 2 || len(ds.TemporalCoverages) != 2 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	if ds.TemporalCoverages[1].End != nil {
		t.Fatalf("expected missing end to decode as nil")
	}
}

func TestClientFetchErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"error":"not found"}`, syncerr.ErrNotFound},
		{"server error", http.StatusInternalServerError, "boom", syncerr.ErrUpstream},
		{"bad json", http.StatusOK, "{not json", syncerr.ErrUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client := NewClient(mockLimiter{}, ts.URL, time.Second)
			_, status, err := client.Fetch(context.Background(), "abc123")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
		})
	}
}

func TestClientFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	client := NewClient(mockLimiter{}, ts.URL, 50*time.Millisecond)
	_, status, err := client.Fetch(context.Background(), "abc123")
	if !errors.Is(err, syncerr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if status != 0 {
		t.Fatalf("expected no status on timeout, got %d", status)
	}
}

func decodeDataset(t *testing.T) Dataset {
	t.Helper()
	var ds Dataset
	if err := json.Unmarshal([]byte(datasetJSON), &ds); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return ds
}

func TestMapToDataResource(t *testing.T) {
	ds := decodeDataset(t)
	r, err := MapToDataResource(ds, nil, DefaultMapOptions("https://data.example.org/"))
	if err != nil {
		t.Fatalf("map error: %v", err)
	}

	if r.UID != "" {
		t.Fatalf("expected no uid in payload, got %s", r.UID)
	}
	if r.GUID != "abc123" || r.GBIFRegistryKey != "abc123" || r.Name != "Vermont Bird Atlas" {
		t.Fatalf("unexpected identity fields: %+v", r)
	}
	if r.Address.Street != "20 Palmer Court, Suite 2" || r.Address.City != "Burlington" || r.Address.State != "VT" ||
		r.Address.Postcode != "05401" || r.Address.Country != "US" {
		t.Fatalf("unexpected address: %+v", r.Address)
	}
	if r.Email != "info@example.org" || r.Phone != "802-555-0100" {
		t.Fatalf("unexpected contact: %s %s", r.Email, r.Phone)
	}
	if r.BeginDate == nil || *r.BeginDate != "2003-01-01" || r.EndDate == nil || *r.EndDate != "2007-12-31" {
		t.Fatalf("unexpected dates: %v %v", r.BeginDate, r.EndDate)
	}
	if r.DOI != ds.DOI || r.Rights != ds.License || r.Citation != ds.Citation.Text {
		t.Fatalf("expected verbatim pass-through, got doi=%s rights=%s citation=%s", r.DOI, r.Rights, r.Citation)
	}
	if r.GBIFArchiveURL != "https://ipt.example.org/archive.do?r=atlas" {
		t.Fatalf("unexpected gbif archive url: %s", r.GBIFArchiveURL)
	}
	cp := r.ConnectionParameters
	if cp.Protocol != "DwCA" || cp.URL != "https://data.example.org/gbif-split/abc123.zip" ||
		len(cp.TermsForUniqueKey) != 1 || cp.TermsForUniqueKey[0] != "gbifID" {
		t.Fatalf("unexpected connection parameters: %+v", cp)
	}
	if !strings.Contains(r.TechDescription, "Vermont") || !strings.Contains(r.TechDescription, "dataset_key=abc123") ||
		!strings.Contains(r.TechDescription, "geometry=POLYGON") {
		t.Fatalf("unexpected tech description: %s", r.TechDescription)
	}
	if !r.GBIFDataset || r.Status != "dataAvailable" {
		t.Fatalf("unexpected constants: %+v", r)
	}
}

func TestResourceAndContentTypesForAllKinds(t *testing.T) {
	kinds := []models.DatasetType{
		models.DatasetOccurrence, models.DatasetChecklist, models.DatasetSamplingEvent,
		models.DatasetMetadata, "SOMETHING_NEW", "",
	}
	for _, kind := range kinds {
		rt := ResourceTypeFor(kind)
		if (rt == models.ResourceSpeciesList) != (kind == models.DatasetChecklist) {
			t.Fatalf("%q: unexpected resource type %s", kind, rt)
		}

		tags := ContentTypesFor(kind, models.ContentGBIFImport)
		if tags[0] != models.ContentGBIFImport {
			t.Fatalf("%q: expected base tag first, got %v", kind, tags)
		}
		var want []string
		switch kind {
		case models.DatasetOccurrence, models.DatasetSamplingEvent:
			want = []string{models.ContentGBIFImport, models.ContentPointOccurrenceData}
		case models.DatasetChecklist:
			want = []string{models.ContentGBIFImport, models.ContentSpeciesList}
		default:
			want = []string{models.ContentGBIFImport}
		}
		if strings.Join(tags, "|") != strings.Join(want, "|") {
			t.Fatalf("%q: expected %v, got %v", kind, want, tags)
		}
	}
}

func TestArchiveURLIndependentOfRecord(t *testing.T) {
	opts := DefaultMapOptions("https://data.example.org")
	for _, kind := range []models.DatasetType{models.DatasetOccurrence, models.DatasetChecklist, models.DatasetMetadata} {
		ds := Dataset{Key: "k-1", Type: kind, Contacts: []Contact{{}}}
		r, err := MapToDataResource(ds, nil, opts)
		if err != nil {
			t.Fatalf("map error: %v", err)
		}
		if r.ConnectionParameters.URL != "https://data.example.org/gbif-split/k-1.zip" {
			t.Fatalf("unexpected archive url: %s", r.ConnectionParameters.URL)
		}
	}
}

func TestMapRequiresContact(t *testing.T) {
	ds := Dataset{Key: "abc123", Type: models.DatasetOccurrence}
	for i := 0; i < 2; i++ {
		r, err := MapToDataResource(ds, nil, DefaultMapOptions("https://data.example.org"))
		if !errors.Is(err, syncerr.ErrMalformedInput) {
			t.Fatalf("expected malformed input, got %v", err)
		}
		if r != nil {
			t.Fatalf("expected no partial output")
		}
	}
}

func TestMapNullDatesAndEmptyFields(t *testing.T) {
	ds := Dataset{Key: "abc123", Type: models.DatasetOccurrence, Contacts: []Contact{{City: "Burlington"}}}
	r, err := MapToDataResource(ds, nil, DefaultMapOptions("https://data.example.org"))
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	if r.BeginDate != nil || r.EndDate != nil {
		t.Fatalf("expected null dates, got %v %v", r.BeginDate, r.EndDate)
	}

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"beginDate":null`, `"endDate":null`, `"gbifArchiveUrl":""`, `"phone":""`, `"street":""`, `"hubMembership":[]`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}

	blank := ""
	ds.TemporalCoverages = []TemporalCoverage{{Start: &blank}}
	r, err = MapToDataResource(ds, nil, DefaultMapOptions("https://data.example.org"))
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	if r.BeginDate != nil {
		t.Fatalf("expected blank start to map to null, got %q", *r.BeginDate)
	}
}

func TestMapCarriesCuratorFields(t *testing.T) {
	ds := decodeDataset(t)
	existing := &models.DataResource{
		UID:               "dr42",
		Acronym:           "VBA",
		NetworkMembership: json.RawMessage(`["CHAH"]`),
		HubMembership:     []json.RawMessage{json.RawMessage(`{"uid":"dh1"}`)},
	}
	r, err := MapToDataResource(ds, existing, DefaultMapOptions("https://data.example.org"))
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	if r.UID != "" {
		t.Fatalf("expected uid not to be copied, got %s", r.UID)
	}
	if r.Acronym != "VBA" || string(r.NetworkMembership) != `["CHAH"]` || len(r.HubMembership) != 1 {
		t.Fatalf("expected curator fields carried over, got %+v", r)
	}
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("https://www.gbif.org/", "abc", "POLYGON((0 0,1 1))")
	want := "https://www.gbif.org/occurrence/search?dataset_key=abc&geometry=POLYGON%28%280+0%2C1+1%29%29"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
