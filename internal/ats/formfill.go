package ats

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/resolver"
)

// clickFirst activates the first selector present on the page.
func clickFirst(page browser.Page, selectors []string) bool {
	for _, selector := range selectors {
		if !page.Exists(selector) {
			continue
		}
		if err := page.Click(selector); err == nil {
			return true
		}
	}
	return false
}

// uploadResume attaches the profile resume to the first upload control
// found. Best-effort: a missing resume or control is not a failure.
func uploadResume(deps *Deps, page browser.Page, app *Application, selectors []string) {
	if app.Profile.ResumePath == "" {
		deps.Logger.Debug("no resume on profile; skipping upload",
			zap.String("user_id", app.UserID),
		)
		return
	}

	selectors = append(selectors, `input[type="file"]`)
	for _, selector := range selectors {
		if !page.Exists(selector) {
			continue
		}
		if err := page.Upload(selector, app.Profile.ResumePath); err != nil {
			deps.Logger.Warn("resume upload failed",
				zap.String("user_id", app.UserID),
				zap.String("selector", selector),
				zap.Error(err),
			)
		}
		return
	}

	deps.Logger.Debug("no resume upload control found", zap.String("job_id", app.Job.ID))
}

// fillVisibleFields walks the visible form controls once: identity
// fields come from the profile, screening questions go through the
// cached screener, anything else left unmapped goes to the resolver.
func fillVisibleFields(ctx context.Context, deps *Deps, page browser.Page, app *Application) error {
	fields, err := page.Fields()
	if err != nil {
		return fmt.Errorf("collect fields: %w", err)
	}

	for _, field := range fields {
		if field.Value != "" || field.Kind == "file" {
			continue
		}

		if field.Kind == "checkbox" {
			// Required checkboxes are consent boxes; optional ones are left alone.
			if field.Required {
				if err := page.Click(field.Selector); err != nil {
					return fmt.Errorf("check %q: %w", fieldName(field), err)
				}
			}
			continue
		}

		if value, ok := identityValue(field, app.Profile); ok {
			if err := setField(page, field, value); err != nil {
				return fmt.Errorf("fill %q: %w", fieldName(field), err)
			}
			continue
		}

		req := &resolver.Request{Field: field, Job: app.Job, Profile: app.Profile}

		var answer *resolver.Answer
		if isScreeningQuestion(field) {
			answer, err = deps.Screener.Answer(ctx, app.UserID, req)
		} else {
			answer, err = deps.Resolver.Resolve(ctx, req)
		}
		if err != nil {
			return fmt.Errorf("resolve %q: %w", fieldName(field), err)
		}

		if answer.Skip {
			deps.Logger.Debug("resolver declined field",
				zap.String("field", fieldName(field)),
				zap.String("job_id", app.Job.ID),
			)
			continue
		}

		if err := setField(page, field, answer.Value); err != nil {
			return fmt.Errorf("fill %q: %w", fieldName(field), err)
		}
	}

	return nil
}

func setField(page browser.Page, field browser.FormField, value string) error {
	if field.Kind == "select" {
		return page.SelectOption(field.Selector, value)
	}
	return page.Fill(field.Selector, value)
}

func fieldName(field browser.FormField) string {
	if field.Name != "" {
		return field.Name
	}
	return field.Label
}

// isScreeningQuestion separates free-form screening questions from
// plain unmapped inputs; the former get per-user answer caching.
func isScreeningQuestion(field browser.FormField) bool {
	if field.Kind == "textarea" {
		return true
	}
	return strings.HasSuffix(strings.TrimSpace(field.Label), "?")
}

// identityValue maps a form field to a profile value by its name and label.
func identityValue(field browser.FormField, profile *model.Profile) (string, bool) {
	key := strings.ToLower(field.Name + " " + field.Label)

	match := func(value string, terms ...string) (string, bool) {
		for _, term := range terms {
			if strings.Contains(key, term) {
				return value, value != ""
			}
		}
		return "", false
	}

	if v, ok := match(profile.FirstName(), "first_name", "first name", "firstname", "given name"); ok {
		return v, true
	}
	if v, ok := match(profile.LastName(), "last_name", "last name", "lastname", "family name", "surname"); ok {
		return v, true
	}
	if v, ok := match(profile.Email, "email", "e-mail"); ok {
		return v, true
	}
	if v, ok := match(profile.Phone, "phone", "mobile", "tel"); ok {
		return v, true
	}
	if v, ok := match(profile.Location, "location", "city", "address"); ok {
		return v, true
	}
	if v, ok := match(profile.LinkedInURL, "linkedin"); ok {
		return v, true
	}
	if v, ok := match(profile.GitHubURL, "github"); ok {
		return v, true
	}
	if v, ok := match(profile.WebsiteURL, "website", "portfolio", "personal site"); ok {
		return v, true
	}
	// Bare "name" last so the specific variants above win.
	if v, ok := match(profile.FullName, "full name", "full_name", "your name", "name"); ok {
		return v, true
	}

	return "", false
}
