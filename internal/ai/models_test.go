package ai

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEstimateCostUSD(t *testing.T) {
	cost, ok := EstimateCostUSD("gpt-4o", 1000, 1000)
	if !ok || math.Abs(cost-0.0125) > 1e-12 {
		t.Fatalf("cost = %v ok = %v", cost, ok)
	}
	if _, ok := EstimateCostUSD("unknown/model", 1, 1); ok {
		t.Fatal("unknown model should not be priced")
	}
}

func TestCheckToolSupport(t *testing.T) {
	if err := CheckToolSupport("gpt-4o"); err != nil {
		t.Fatalf("gpt-4o: %v", err)
	}
	if err := CheckToolSupport("llama3:latest"); err == nil {
		t.Fatal("llama3:latest should be rejected")
	}
	if err := CheckToolSupport("my-custom-model"); err != nil {
		t.Fatalf("unknown models pass: %v", err)
	}
}

func TestMergeCatalogFromJSON(t *testing.T) {
	orig := Catalog()
	t.Cleanup(func() { OverrideCatalog(orig) })

	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{"custom/model":{"Name":"custom/model","Provider":"openrouter","ContextTokens":4096,"InputPerK":0.001,"OutputPerK":0.002,"Tools":true}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadCatalogFromJSON(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	MergeCatalog(m)
	mi, ok := LookupModel("custom/model")
	if !ok || mi.ContextTokens != 4096 || !mi.Tools {
		t.Fatalf("merged entry = %+v ok=%v", mi, ok)
	}
	if _, ok := LookupModel("gpt-4o"); !ok {
		t.Fatal("merge must keep existing entries")
	}
}
