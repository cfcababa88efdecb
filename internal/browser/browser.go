// Package browser wraps the browser automation engine behind narrow
// navigate/query/click/type/upload/content operations so strategies and
// tests never depend on the engine directly.
package browser

import "context"

// FormField describes one visible form control on a page.
type FormField struct {
	Selector string   `mapstructure:"selector"`
	Name     string   `mapstructure:"name"`
	Label    string   `mapstructure:"label"`
	Kind     string   `mapstructure:"kind"`
	Value    string   `mapstructure:"value"`
	Options  []string `mapstructure:"options"`
	Required bool     `mapstructure:"required"`
}

// Page is one browser page scoped to a single submission attempt.
// Implementations must be safe to Close on every exit path.
type Page interface {
	Goto(url string) error
	URL() string
	Content() (string, error)
	Exists(selector string) bool
	WaitFor(selector string) error
	Click(selector string) error
	Fill(selector, value string) error
	SelectOption(selector, value string) error
	Upload(selector, path string) error
	Fields() ([]FormField, error)
	Close() error
}

// Engine owns the process-wide automation runtime and hands out pages.
type Engine interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
