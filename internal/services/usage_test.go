package services

import (
	"testing"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
)

func TestModelPricing_Configured(t *testing.T) {
	if (ModelPricing{}).Configured() {
		t.Fatalf("zero pricing must not report configured")
	}
	if !(ModelPricing{InputPerMillion: 2.5}).Configured() {
		t.Fatalf("input rate alone should count as configured")
	}
	if !(ModelPricing{OutputPerMillion: 10}).Configured() {
		t.Fatalf("output rate alone should count as configured")
	}
}

func TestModelPricing_Cost(t *testing.T) {
	pricing := ModelPricing{InputPerMillion: 2, OutputPerMillion: 8}
	input, output, total := pricing.Cost(&openai.Usage{InputTokens: 500_000, OutputTokens: 250_000})
	if input != 1 {
		t.Fatalf("unexpected input cost: %v", input)
	}
	if output != 2 {
		t.Fatalf("unexpected output cost: %v", output)
	}
	if total != 3 {
		t.Fatalf("unexpected total cost: %v", total)
	}
}

func TestModelPricing_CostNilUsage(t *testing.T) {
	input, output, total := (ModelPricing{InputPerMillion: 2}).Cost(nil)
	if input != 0 || output != 0 || total != 0 {
		t.Fatalf("nil usage must cost nothing: %v/%v/%v", input, output, total)
	}
}
