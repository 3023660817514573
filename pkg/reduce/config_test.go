package reduce

import (
	"testing"

	"github.com/logreduce/logreduce/pkg/merge"
	"github.com/logreduce/logreduce/pkg/predicate"
)

func TestNewConfigRejectsBothBoundaryConditions(t *testing.T) {
	cond, err := predicate.NewJQCondition("true")
	if err != nil {
		t.Fatalf("NewJQCondition: %v", err)
	}
	_, err = NewConfig(Config{StartsWhen: cond, EndsWhen: cond})
	if err == nil {
		t.Fatalf("NewConfig with both starts_when and ends_when: want error")
	}
}

func TestNewConfigRejectsUnknownStrategy(t *testing.T) {
	_, err := NewConfig(Config{
		MergeStrategies: []FieldStrategy{{Path: "x", Strategy: merge.Strategy("bogus")}},
	})
	if err == nil {
		t.Fatalf("NewConfig with unknown strategy: want error")
	}
}

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(Config{})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.ExpireAfter != defaultExpireAfter {
		t.Fatalf("ExpireAfter = %v, want default %v", cfg.ExpireAfter, defaultExpireAfter)
	}
	if cfg.FlushPeriod != defaultFlushPeriod {
		t.Fatalf("FlushPeriod = %v, want default %v", cfg.FlushPeriod, defaultFlushPeriod)
	}
	if cfg.PerStateByteThreshold != defaultPerStateByte {
		t.Fatalf("PerStateByteThreshold = %d, want default %d", cfg.PerStateByteThreshold, defaultPerStateByte)
	}
}
