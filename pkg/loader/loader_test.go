package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/covview/covview/pkg/model"
)

const sampleProfile = `mode: set
github.com/acme/calc/add.go:3.14,5.2 2 1
github.com/acme/calc/add.go:7.14,9.2 1 0
github.com/acme/calc/sub.go:3.14,5.2 2 1
github.com/acme/web/server.go:10.1,20.2 5 1
`

// TestParseProfile verifies the standard text format round-trips into
// blocks and that malformed lines are skipped.
func TestParseProfile(t *testing.T) {
	mode, blocks, err := ParseProfile(strings.NewReader(sampleProfile + "not a block line\n"))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	if mode != "set" {
		t.Errorf("mode = %q, want %q", mode, "set")
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}

	first := blocks[0]
	if first.File != "github.com/acme/calc/add.go" {
		t.Errorf("file = %q", first.File)
	}
	if first.StartLine != 3 || first.StartCol != 14 || first.EndLine != 5 || first.EndCol != 2 {
		t.Errorf("span = %+v", first)
	}
	if first.Statements != 2 || !first.Covered() {
		t.Errorf("stats = %+v", first)
	}
	if blocks[1].Covered() {
		t.Error("zero-count block should not be covered")
	}
}

// TestParseProfileMissingMode verifies the mode header is required.
func TestParseProfileMissingMode(t *testing.T) {
	if _, _, err := ParseProfile(strings.NewReader("a.go:1.1,2.2 1 1\n")); err == nil {
		t.Error("expected error for profile without mode header")
	}
}

// TestAssembleTreeShape verifies path segments become namespace nodes,
// files become file nodes, and blocks become leaf nodes with stats.
func TestAssembleTreeShape(t *testing.T) {
	_, blocks, err := ParseProfile(strings.NewReader(sampleProfile))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}

	root, err := NewBuilder().Assemble(blocks, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// coverage -> github.com -> acme -> {calc, web}
	acme := root.Children[0].Children[0]
	if acme.Name != "acme" || acme.Kind != model.KindNamespace {
		t.Fatalf("unexpected node %q (%v)", acme.Name, acme.Kind)
	}
	if len(acme.Children) != 2 || acme.Children[0].Name != "calc" || acme.Children[1].Name != "web" {
		t.Fatalf("expected sorted packages calc, web under acme")
	}

	calc := acme.Children[0]
	if len(calc.Children) != 2 || calc.Children[0].Name != "add.go" {
		t.Fatalf("expected files add.go, sub.go under calc")
	}
	add := calc.Children[0]
	if add.Kind != model.KindClass || len(add.Children) != 2 {
		t.Fatalf("expected 2 block nodes under add.go, got %d", len(add.Children))
	}
	if add.Children[0].Name != "L3-L5" || add.Children[0].Kind != model.KindMethod {
		t.Errorf("block node = %q (%v)", add.Children[0].Name, add.Children[0].Kind)
	}

	total := add.Total()
	if total.Covered != 2 || total.Total != 3 {
		t.Errorf("add.go totals = %+v, want {Covered:2 Total:3}", total)
	}
}

// TestAssembleFixtures verifies manifest fixtures surface as data nodes
// next to the package's files.
func TestAssembleFixtures(t *testing.T) {
	_, blocks, err := ParseProfile(strings.NewReader(sampleProfile))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}

	fixtures := []Fixture{
		{Path: "github.com/acme/calc/testdata/cases.json"},
		{Path: "github.com/acme/web/golden.txt", Name: "golden output"},
	}
	root, err := NewBuilder().Assemble(blocks, fixtures)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	var data []string
	var walk func(n *model.Node)
	walk = func(n *model.Node) {
		if n.Kind == model.KindData {
			data = append(data, n.Name)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	if len(data) != 2 {
		t.Fatalf("expected 2 data nodes, got %v", data)
	}
	if data[0] != "cases.json" {
		t.Errorf("default data name = %q, want base name", data[0])
	}
	if data[1] != "golden output" {
		t.Errorf("named data node = %q, want manifest override", data[1])
	}
}

// TestBuilderReusesUnchangedSubtrees verifies the structure-sharing
// contract: an unchanged subtree keeps its *model.Node instance across
// builds while the spine above a change is fresh.
func TestBuilderReusesUnchangedSubtrees(t *testing.T) {
	b := NewBuilder()

	_, blocks, err := ParseProfile(strings.NewReader(sampleProfile))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	root1, err := b.Assemble(blocks, nil)
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}

	// Identical content: every instance reused, root included.
	root2, err := b.Assemble(blocks, nil)
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if root2 != root1 {
		t.Error("identical input should reuse the root instance")
	}

	// Flip coverage of one block in calc. The web subtree is untouched
	// and must keep its instance; the spine above calc must be fresh.
	changed := strings.Replace(sampleProfile, "add.go:7.14,9.2 1 0", "add.go:7.14,9.2 1 1", 1)
	_, blocks3, err := ParseProfile(strings.NewReader(changed))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	root3, err := b.Assemble(blocks3, nil)
	if err != nil {
		t.Fatalf("third Assemble: %v", err)
	}

	if root3 == root1 {
		t.Error("changed input should rebuild the root")
	}
	acme1 := root1.Children[0].Children[0]
	acme3 := root3.Children[0].Children[0]
	if acme3 == acme1 {
		t.Error("spine above the change should be a fresh instance")
	}
	if acme3.Children[0] == acme1.Children[0] {
		t.Error("changed calc subtree should be a fresh instance")
	}
	if acme3.Children[1] != acme1.Children[1] {
		t.Error("unchanged web subtree should keep its instance")
	}
	// sub.go inside calc is itself unchanged and stays shared.
	if acme3.Children[0].Children[1] != acme1.Children[0].Children[1] {
		t.Error("unchanged file inside a changed package should keep its instance")
	}
}

// TestBuildFromFiles verifies the file-based entry point end to end.
func TestBuildFromFiles(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "coverage.out")
	if err := os.WriteFile(profilePath, []byte(sampleProfile), 0644); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	manifest := `{"fixtures":[{"path":"github.com/acme/calc/testdata/cases.json"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := NewBuilder().Build(profilePath, manifestPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if root.Name != "coverage" {
		t.Errorf("root name = %q", root.Name)
	}
	if got := root.CountNodes(); got == 0 {
		t.Error("expected a populated tree")
	}

	// Missing manifest is fine.
	if _, err := NewBuilder().Build(profilePath, filepath.Join(dir, "absent.json")); err != nil {
		t.Errorf("missing manifest should not fail the build: %v", err)
	}
}
