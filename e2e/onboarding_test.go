package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestOnboardingFeatures runs the Gherkin scenarios against a live
// server. Set MERIDIAN_E2E_BASE_URL and MERIDIAN_E2E_ADMIN_TOKEN to
// point it somewhere other than the local defaults.
func TestOnboardingFeatures(t *testing.T) {
	if os.Getenv("MERIDIAN_E2E_SKIP") != "" {
		t.Skip("e2e suite disabled via MERIDIAN_E2E_SKIP")
	}

	tc := NewTestContext()

	suite := godog.TestSuite{
		Name: "onboarding",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("onboarding feature suite failed")
	}
}
