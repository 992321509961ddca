package engine

import "testing"

// TestDefaultRoles checks each faction gets its two abilities.
func TestDefaultRoles(t *testing.T) {
	central := DefaultRole(FactionCentral)
	if _, ok := central.Ability(AbilityBlitzRaid); !ok {
		t.Errorf("central role missing blitz raid")
	}
	if _, ok := central.Ability(AbilityEmergencyRepairs); !ok {
		t.Errorf("central role missing emergency repairs")
	}
	entente := DefaultRole(FactionEntente)
	taxi, ok := entente.Ability(AbilityTaxiMiracle)
	if !ok || !taxi.OneTimeUse {
		t.Errorf("entente taxi miracle should be one-time")
	}
}

// TestAbilityLifecycle runs a timed ability through activation, ticking and reset.
func TestAbilityLifecycle(t *testing.T) {
	r := DefaultRole(FactionCentral)
	a, err := r.Activate(AbilityBlitzRaid)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if !a.Used || a.TurnsLeft != 5 {
		t.Fatalf("unexpected state after activation: %+v", a)
	}
	if r.TransportBoost() != 1.3 {
		t.Errorf("transport boost should apply while active")
	}
	if _, err := r.Activate(AbilityBlitzRaid); err == nil {
		t.Errorf("activating a running ability should fail")
	}
	for i := 0; i < 4; i++ {
		if expired := r.Tick(); len(expired) != 0 {
			t.Fatalf("tick %d expired early: %v", i, expired)
		}
	}
	expired := r.Tick()
	if len(expired) != 1 || expired[0] != AbilityBlitzRaid {
		t.Fatalf("expected blitz raid to expire, got %v", expired)
	}
	if a.Used || a.TurnsLeft != 0 {
		t.Errorf("expired ability should be reusable: %+v", a)
	}
	if r.TransportBoost() != 1 {
		t.Errorf("transport boost should end with the ability")
	}
	if _, err := r.Activate(AbilityBlitzRaid); err != nil {
		t.Errorf("re-activation after expiry failed: %v", err)
	}
}

// TestOneTimeAbility verifies a one-time ability cannot be reused.
func TestOneTimeAbility(t *testing.T) {
	r := DefaultRole(FactionEntente)
	if _, err := r.Activate(AbilityTaxiMiracle); err != nil {
		t.Fatalf("first activation failed: %v", err)
	}
	r.Tick()
	if _, err := r.Activate(AbilityTaxiMiracle); err == nil {
		t.Errorf("one-time ability should not activate twice")
	}
}

// TestActivateUnknown rejects ids the role does not have.
func TestActivateUnknown(t *testing.T) {
	if _, err := DefaultRole(FactionEntente).Activate(AbilityBlitzRaid); err == nil {
		t.Errorf("entente should not have blitz raid")
	}
}

// TestRepairBoost checks elastic defense.
func TestRepairBoost(t *testing.T) {
	r := DefaultRole(FactionEntente)
	if r.RepairBoost() != 1 {
		t.Errorf("no boost before activation")
	}
	r.Activate(AbilityElasticDefense)
	if r.RepairBoost() != 1.5 {
		t.Errorf("repair boost = %v", r.RepairBoost())
	}
}
