package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIntakeMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIntakeMetrics(reg)

	m.ObserveTurn("line", "advanced")
	m.ObserveTurn("line", "advanced")
	m.ObserveTurn("webchat", "reask")
	m.ObserveGuardrailBlock("medication")
	m.ObserveStaticFallback("ONSET")
	m.ObserveCompletionCall("question", "ok")
	m.ObserveTurnLatency("line", 0.42)

	if got := testutil.ToFloat64(m.turnsTotal.WithLabelValues("line", "advanced")); got != 2 {
		t.Errorf("expected 2 line/advanced turns, got %v", got)
	}
	if got := testutil.ToFloat64(m.guardrailBlocks.WithLabelValues("medication")); got != 1 {
		t.Errorf("expected 1 guardrail block, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{
		"previsit_intake_turns_total",
		"previsit_intake_guardrail_blocks_total",
		"previsit_intake_static_fallbacks_total",
		"previsit_intake_completion_calls_total",
		"previsit_intake_turn_latency_seconds",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("metric %s not registered (got %s)", want, joined)
		}
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *IntakeMetrics
	m.ObserveTurn("line", "advanced")
	m.ObserveCompletionCall("classify", "error")
	m.ObserveGuardrailBlock("diagnosis")
	m.ObserveStaticFallback("SEVERITY")
	m.ObserveTurnLatency("webchat", 1)
}
