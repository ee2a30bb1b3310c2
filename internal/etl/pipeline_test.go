package etl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/KaramelBytes/samarth-cli/internal/store"
)

type fakeFetcher struct {
	pages map[string][]json.RawMessage
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, id string, _ int) ([]json.RawMessage, error) {
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return f.pages[id], nil
}

type fakeLoader struct {
	got   *store.Tables
	err   error
	calls int
}

func (l *fakeLoader) ReplaceTables(_ context.Context, t store.Tables) error {
	l.calls++
	l.got = &t
	return l.err
}

func raw(s ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(s))
	for i, v := range s {
		out[i] = json.RawMessage(v)
	}
	return out
}

func newPipeline(f *fakeFetcher, l Loader) *Pipeline {
	return &Pipeline{
		Fetcher:     f,
		Loader:      l,
		Agriculture: Source{ResourceID: "agri", SourceURL: "https://agri", Limit: 10},
		Climate:     Source{ResourceID: "clim", SourceURL: "https://clim", Limit: 10},
	}
}

func TestPipelineRunLoadsBothTables(t *testing.T) {
	f := &fakeFetcher{pages: map[string][]json.RawMessage{
		"agri": raw(
			`{"state_name":"Punjab","district_name":"Ludhiana","crop_year":"2010","season":"Kharif","crop":"Rice","area_":"1","production_":"5"}`,
			`{"state_name":"Punjab","district_name":"Ludhiana","crop_year":null,"crop":"Rice","production_":"5"}`,
			`[1,2]`,
		),
		"clim": raw(`{"subdivision":"Punjab","year":"2010","jan":"1","feb":"2","mar":"3","apr":"4","may":"5","jun":"6","jul":"7","aug":"8","sep":"9","oct":"10","nov":"11","dec":"12"}`),
	}}
	l := &fakeLoader{}
	sum, err := newPipeline(f, l).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.RunID == "" || !sum.Loaded {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Agriculture != (DatasetSummary{Fetched: 3, Rows: 1, Dropped: 2}) {
		t.Fatalf("agriculture summary = %+v", sum.Agriculture)
	}
	if sum.Climate != (DatasetSummary{Fetched: 1, Rows: 12, Dropped: 0}) {
		t.Fatalf("climate summary = %+v", sum.Climate)
	}
	if l.calls != 1 || len(l.got.Agriculture) != 1 || len(l.got.Rainfall) != 12 {
		t.Fatalf("loader got %+v", l.got)
	}
	if sum.Defects[0].Index != 2 || sum.Defects[0].Field != "" {
		t.Fatalf("decode defect should come first: %+v", sum.Defects)
	}
}

func TestPipelineFetchErrorAbortsBeforeLoad(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{
		pages: map[string][]json.RawMessage{"agri": raw(`{}`)},
		errs:  map[string]error{"clim": boom},
	}
	l := &fakeLoader{}
	_, err := newPipeline(f, l).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if l.calls != 0 {
		t.Fatal("loader must not run after a fetch error")
	}
}

func TestPipelineDryRun(t *testing.T) {
	f := &fakeFetcher{pages: map[string][]json.RawMessage{"agri": raw(), "clim": raw()}}
	sum, err := newPipeline(f, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Loaded {
		t.Fatal("dry run must not load")
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected two fetches, got %v", f.calls)
	}
}

func TestPipelineLoadError(t *testing.T) {
	f := &fakeFetcher{pages: map[string][]json.RawMessage{"agri": raw(), "clim": raw()}}
	l := &fakeLoader{err: errors.New("disk full")}
	if _, err := newPipeline(f, l).Run(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
}
