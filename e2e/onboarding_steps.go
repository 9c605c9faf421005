package e2e

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps wires the onboarding scenario vocabulary.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	s := &onboardingSteps{tc: tc}

	ctx.Before(func(ctx0 context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return ctx0, nil
	})

	ctx.Step(`^an applicant "([^"]*)" "([^"]*)" with email "([^"]*)"$`, s.createApplicant)
	ctx.Step(`^the applicant is moved through "([^"]*)"$`, s.moveThroughStatuses)
	ctx.Step(`^an offer is sent$`, s.sendOffer)
	ctx.Step(`^the offer is accepted$`, s.acceptOffer)
	ctx.Step(`^the practitioner opens their onboarding link$`, s.peekLink)
	ctx.Step(`^the practitioner completes onboarding with password "([^"]*)"$`, s.complete)
	ctx.Step(`^someone completes onboarding with token "([^"]*)" and password "([^"]*)"$`, s.completeWithToken)

	ctx.Step(`^the response status is (\d+)$`, s.responseStatusIs)
	ctx.Step(`^the link state is "([^"]*)"$`, s.linkStateIs)
	ctx.Step(`^the result field "([^"]*)" is true$`, s.resultFieldTrue)
	ctx.Step(`^the error code is "([^"]*)"$`, s.errorCodeIs)
}

type onboardingSteps struct {
	tc *TestContext
}

func (s *onboardingSteps) createApplicant(first, last, email string) error {
	if err := s.tc.AdminPOST("/admin/subjects", map[string]string{
		"first_name":     first,
		"last_name":      last,
		"personal_email": email,
	}); err != nil {
		return err
	}
	id, err := s.tc.StringField("id")
	if err != nil {
		return err
	}
	s.tc.subjectID = id
	return nil
}

func (s *onboardingSteps) moveThroughStatuses(statuses string) error {
	for _, status := range splitCSV(statuses) {
		if err := s.tc.AdminPOST("/admin/subjects/"+s.tc.subjectID+"/transition",
			map[string]string{"status": status}); err != nil {
			return err
		}
		if s.tc.lastStatus != 200 {
			return fmt.Errorf("transition to %s returned %d", status, s.tc.lastStatus)
		}
	}
	return nil
}

func (s *onboardingSteps) sendOffer() error {
	if err := s.tc.AdminPOST("/admin/subjects/"+s.tc.subjectID+"/offer", nil); err != nil {
		return err
	}
	value, err := s.tc.StringField("value")
	if err != nil {
		return err
	}
	s.tc.tokenValue = value
	return nil
}

func (s *onboardingSteps) acceptOffer() error {
	if err := s.tc.AdminPOST("/admin/subjects/"+s.tc.subjectID+"/accept-offer",
		map[string]string{"token": s.tc.tokenValue}); err != nil {
		return err
	}
	value, err := s.tc.StringField("value")
	if err != nil {
		return err
	}
	s.tc.tokenValue = value
	return nil
}

func (s *onboardingSteps) peekLink() error {
	return s.tc.GET("/onboarding/" + s.tc.tokenValue)
}

func (s *onboardingSteps) complete(password string) error {
	return s.completeWithToken(s.tc.tokenValue, password)
}

func (s *onboardingSteps) completeWithToken(token, password string) error {
	return s.tc.POST("/onboarding/complete", map[string]string{
		"token":    token,
		"password": password,
	})
}

func (s *onboardingSteps) responseStatusIs(expected int) error {
	if s.tc.lastStatus != expected {
		return fmt.Errorf("expected status %d, got %d (body %v)", expected, s.tc.lastStatus, s.tc.lastBody)
	}
	return nil
}

func (s *onboardingSteps) linkStateIs(expected string) error {
	state, err := s.tc.StringField("state")
	if err != nil {
		return err
	}
	if state != expected {
		return fmt.Errorf("expected link state %q, got %q", expected, state)
	}
	return nil
}

func (s *onboardingSteps) resultFieldTrue(field string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	b, ok := v.(bool)
	if !ok || !b {
		return fmt.Errorf("expected %q to be true, got %v", field, v)
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (s *onboardingSteps) errorCodeIs(expected string) error {
	v, err := s.tc.Field("error")
	if err != nil {
		return err
	}
	body, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("error field is not an object: %v", v)
	}
	if body["code"] != expected {
		return fmt.Errorf("expected error code %q, got %v", expected, body["code"])
	}
	return nil
}
