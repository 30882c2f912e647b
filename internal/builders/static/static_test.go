package static

import (
	"context"
	"strings"
	"testing"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

func TestBuildReturnsDefaultSite(t *testing.T) {
	b := New()
	bundle, err := b.Build(context.Background(), core.BuildRequest{Brief: "Build a weather dashboard"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, name := range []string{"index.html", "style.css", "script.js", "README.md"} {
		if bundle.Files[name] == "" {
			t.Fatalf("missing %s", name)
		}
	}
	if !strings.Contains(bundle.Files["index.html"], "Build a weather dashboard") {
		t.Fatalf("brief not interpolated into html")
	}
	if !strings.Contains(bundle.Files["README.md"], "Build a weather dashboard") {
		t.Fatalf("brief not interpolated into readme")
	}
}

func TestBuildTruncatesLongBriefInTitle(t *testing.T) {
	long := strings.Repeat("x", 80)
	b := New()
	bundle, err := b.Build(context.Background(), core.BuildRequest{Brief: long})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "<title>IITM Task - " + strings.Repeat("x", 50) + "</title>"
	if !strings.Contains(bundle.Files["index.html"], want) {
		t.Fatalf("title not truncated to 50 chars")
	}
}

func TestModifyUsesModificationText(t *testing.T) {
	b := New()
	bundle, err := b.Modify(context.Background(), core.ModifyRequest{Modification: "Add dark mode", RepoName: "a/r"})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if !strings.Contains(bundle.Files["index.html"], "Add dark mode") {
		t.Fatalf("modification not interpolated")
	}
}
