package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("plant-a")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Plant.ID != "plant-a" {
		t.Fatalf("plant id: got %s", cfg.Plant.ID)
	}
	if cfg.WorkOrders.NumberPrefix != "WO" {
		t.Fatalf("number prefix: got %s", cfg.WorkOrders.NumberPrefix)
	}
	if cfg.Schedules.DueSoonDays != 7 {
		t.Fatalf("due soon days: got %d", cfg.Schedules.DueSoonDays)
	}
}

func TestFromYAMLRejectsBadPriority(t *testing.T) {
	_, err := FromYAML([]byte(`plant:
  id: p1
  kind: maintenance-plant
workorders:
  number_prefix: WO
  default_priority: urgent
  default_type: corrective
`))
	if err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestFromYAMLRequiresPlantID(t *testing.T) {
	_, err := FromYAML([]byte(`plant:
  kind: maintenance-plant
`))
	if err == nil {
		t.Fatal("expected error for missing plant id")
	}
}
