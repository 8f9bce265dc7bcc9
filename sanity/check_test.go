package sanity

import (
	"testing"

	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/relationship"
	"github.com/lewisfm/CKAN/version"
)

func mkRelease(id, ver string) *kan.Release {
	return &kan.Release{Identifier: id, Version: version.MustParse(ver)}
}

func TestCheckUnmetDepend(t *testing.T) {
	a := mkRelease("A", "1.0")
	a.Depends = []relationship.Descriptor{relationship.Single("B", relationship.VersionBound{Kind: relationship.Any})}

	unmet, conflicts := Check([]*kan.Release{a}, relationship.Facts{})
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %+v", conflicts)
	}
	if len(unmet) != 1 || unmet[0].Release.Identifier != "A" {
		t.Errorf("expected one unmet depend on A, got %+v", unmet)
	}
}

func TestCheckSatisfiedDepend(t *testing.T) {
	a := mkRelease("A", "1.0")
	a.Depends = []relationship.Descriptor{relationship.Single("B", relationship.VersionBound{Kind: relationship.Any})}
	b := mkRelease("B", "1.0")

	unmet, _ := Check([]*kan.Release{a, b}, relationship.Facts{})
	if len(unmet) != 0 {
		t.Errorf("expected no unmet depends, got %+v", unmet)
	}
}

func TestCheckConflict(t *testing.T) {
	a := mkRelease("A", "1.0")
	a.Conflicts = []relationship.Descriptor{relationship.Single("X", relationship.VersionBound{Kind: relationship.Any})}
	x := mkRelease("X", "1.0")

	_, conflicts := Check([]*kan.Release{a, x}, relationship.Facts{})
	if len(conflicts) != 1 || conflicts[0].Other.Identifier != "X" {
		t.Errorf("expected one conflict against X, got %+v", conflicts)
	}
}

func TestCheckSelfConflictIgnored(t *testing.T) {
	a := mkRelease("A", "1.0")
	a.Conflicts = []relationship.Descriptor{relationship.Single("A", relationship.VersionBound{Kind: relationship.Any})}

	_, conflicts := Check([]*kan.Release{a}, relationship.Facts{})
	if len(conflicts) != 0 {
		t.Errorf("expected self-conflict to be ignored, got %+v", conflicts)
	}
}

func TestIsConsistentAndEnforce(t *testing.T) {
	a := mkRelease("A", "1.0")
	if !IsConsistent([]*kan.Release{a}, relationship.Facts{}) {
		t.Errorf("expected consistent with no relationships")
	}
	if err := EnforceConsistency([]*kan.Release{a}, relationship.Facts{}); err != nil {
		t.Errorf("EnforceConsistency: %v", err)
	}

	a.Depends = []relationship.Descriptor{relationship.Single("Missing", relationship.VersionBound{Kind: relationship.Any})}
	if IsConsistent([]*kan.Release{a}, relationship.Facts{}) {
		t.Errorf("expected inconsistent with an unmet depend")
	}
	if err := EnforceConsistency([]*kan.Release{a}, relationship.Facts{}); err == nil {
		t.Errorf("expected EnforceConsistency to return an error")
	}
}
