package entity

import "testing"

func TestBracketContains(t *testing.T) {
	cases := []struct {
		bracket string
		value   float64
		want    bool
	}{
		{"100-200", 100, true},
		{"100-200", 200, true},
		{"100-200", 150.5, true},
		{"100-200", 99.9, false},
		{"100-200", 200.1, false},
		{"3+", 3, true},
		{"3+", 10, true},
		{"3+", 2, false},
		{" 100-200 ", 150, true},
		{"abc", 5, false},
		{"100-", 150, false},
		{"", 0, false},
	}
	for _, c := range cases {
		if got := BracketContains(c.bracket, c.value); got != c.want {
			t.Errorf("BracketContains(%q, %v) = %v, want %v", c.bracket, c.value, got, c.want)
		}
	}
}

func TestConstructionConfigMatches(t *testing.T) {
	cfg := &ConstructionConfig{
		ConstructionType: ConstructionTypeRoughHouse,
		NumOfFloor:       "1-3",
		Area:             "100-200",
		TiledArea:        "0-500",
	}

	if !cfg.Matches(2, 150, 300) {
		t.Error("expected config to match project inside all brackets")
	}
	if cfg.Matches(4, 150, 300) {
		t.Error("expected floor count outside bracket to miss")
	}
	if cfg.Matches(2, 250, 300) {
		t.Error("expected area outside bracket to miss")
	}
	if cfg.Matches(2, 150, 600) {
		t.Error("expected tiled area outside bracket to miss")
	}
}

func TestCanSupplyUnit(t *testing.T) {
	cases := []struct {
		supplierType string
		unit         int
		want         bool
	}{
		{SupplierTypeBoth, UnitKG, true},
		{SupplierTypeBoth, UnitPcs, true},
		{SupplierTypeConstructionMaterial, UnitKG, true},
		{SupplierTypeConstructionMaterial, UnitM3, true},
		{SupplierTypeConstructionMaterial, UnitBar, true},
		{SupplierTypeConstructionMaterial, UnitPcs, false},
		{SupplierTypeFurniture, UnitPcs, true},
		{SupplierTypeFurniture, UnitKG, false},
		{"unknown", UnitKG, false},
	}
	for _, c := range cases {
		if got := CanSupplyUnit(c.supplierType, c.unit); got != c.want {
			t.Errorf("CanSupplyUnit(%q, %d) = %v, want %v", c.supplierType, c.unit, got, c.want)
		}
	}
}

func TestMaterialUnitsCaseVariants(t *testing.T) {
	for _, u := range []string{"KG", "Kg", "kg"} {
		if code, ok := MaterialUnits[u]; !ok || code != UnitKG {
			t.Errorf("MaterialUnits[%q] = %d, %v; want %d", u, code, ok, UnitKG)
		}
	}
	if _, ok := MaterialUnits["XYZ"]; ok {
		t.Error("unexpected unit XYZ resolved")
	}
}
