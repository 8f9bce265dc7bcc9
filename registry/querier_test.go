package registry

import (
	"testing"

	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/relationship"
)

func TestQuerierLatestAvailableFiltersStabilityAndCompat(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(dir)
	r := repo("R1", "https://example.com/r1.json", 0)
	p.index["R1"] = mustParseIndex(t, r, `{"releases":[
		{"spec_version":1,"identifier":"A","version":"2.0","stability":"development","game_version_compatibility":[{"min":"1.0.0","max":"2.0.0","min_inclusive":true,"max_inclusive":false}]},
		{"spec_version":1,"identifier":"A","version":"1.0","stability":"stable","game_version_compatibility":[{"min":"1.0.0","max":"2.0.0","min_inclusive":true,"max_inclusive":false}]}
	]}`)

	q := NewQuerier(p, []kan.Repository{r}, nil, relationship.Facts{})
	crit := gamever.NewCriteria(gamever.MustParse("1.5.0"))

	got, ok := q.LatestAvailable("A", crit, kan.Stable)
	if !ok || got.Version.String() != "1.0" {
		t.Errorf("expected stable tolerance to skip the development release, got %+v ok=%v", got, ok)
	}

	got2, ok := q.LatestAvailable("A", crit, kan.Development)
	if !ok || got2.Version.String() != "2.0" {
		t.Errorf("expected development tolerance to accept the newest release, got %+v ok=%v", got2, ok)
	}
}

func TestQuerierInstalled(t *testing.T) {
	installed := map[string]*kan.Release{"A": {Identifier: "A"}}
	q := NewQuerier(nil, nil, installed, relationship.Facts{})
	r, ok := q.Installed("A")
	if !ok || r.Identifier != "A" {
		t.Errorf("Installed(A) = %+v, %v", r, ok)
	}
	if _, ok := q.Installed("B"); ok {
		t.Errorf("expected B to not be installed")
	}
}

func TestQuerierDownloads(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(dir)
	r := repo("R1", "https://example.com/r1.json", 0)
	idx := mustParseIndex(t, r, `{"releases":[{"spec_version":1,"identifier":"A","version":"1.0"}],"download_counts":{"A":42}}`)
	p.index["R1"] = idx

	q := NewQuerier(p, []kan.Repository{r}, nil, relationship.Facts{})
	n, ok := q.Downloads("A")
	if !ok || n != 42 {
		t.Errorf("Downloads(A) = %d, %v", n, ok)
	}
}
