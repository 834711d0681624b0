// internal/writer/builder_test.go
package writer

import (
	"testing"
	"time"

	"github.com/tamzrod/sim-bridge/internal/config"
)

func TestBuildStatusPlan(t *testing.T) {
	plan, err := BuildStatusPlan(nil)
	if err != nil || plan != nil {
		t.Fatalf("disabled export: plan=%v err=%v", plan, err)
	}

	plan, err = BuildStatusPlan(&config.StatusExportConfig{
		Endpoint:   "127.0.0.1:502",
		UnitID:     3,
		BaseSlot:   1,
		DeviceName: "BRIDGE-A",
		TimeoutMs:  250,
	})
	if err != nil {
		t.Fatalf("BuildStatusPlan: %v", err)
	}
	if plan.Endpoint != "127.0.0.1:502" || plan.UnitID != 3 || plan.BaseSlot != 1 || plan.DeviceName != "BRIDGE-A" {
		t.Fatalf("plan=%+v", plan)
	}
	if plan.Timeout != 250*time.Millisecond {
		t.Fatalf("timeout=%v", plan.Timeout)
	}

	if _, err := BuildStatusPlan(&config.StatusExportConfig{}); err == nil {
		t.Fatalf("empty endpoint accepted")
	}
}
