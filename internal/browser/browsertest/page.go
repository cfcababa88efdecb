// Package browsertest provides fake engine and page implementations for
// exercising submission flows without a real browser.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jobwright/applypilot/internal/browser"
)

// Page is a scriptable in-memory browser.Page.
type Page struct {
	mu sync.Mutex

	// PageURL and PageContent describe the loaded page.
	PageURL     string
	PageContent string

	// Selectors marks which selectors exist on the page.
	Selectors map[string]bool
	// FormFields is returned by Fields.
	FormFields []browser.FormField

	// FailFillSelector makes Fill fail for a specific selector.
	FailFillSelector string
	// GotoErr makes navigation fail.
	GotoErr error

	// Recorded interactions.
	Filled   map[string]string
	Selected map[string]string
	Clicked  []string
	Uploads  map[string]string
	Closed   bool
}

func NewPage() *Page {
	return &Page{
		Selectors: make(map[string]bool),
		Filled:    make(map[string]string),
		Selected:  make(map[string]string),
		Uploads:   make(map[string]string),
	}
}

func (p *Page) Goto(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.PageURL = url
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PageURL
}

func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PageContent, nil
}

func (p *Page) Exists(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Selectors[selector]
}

func (p *Page) WaitFor(selector string) error {
	if !p.Exists(selector) {
		return fmt.Errorf("selector %q not found", selector)
	}
	return nil
}

func (p *Page) Click(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.Selectors[selector] {
		return fmt.Errorf("click: selector %q not found", selector)
	}
	p.Clicked = append(p.Clicked, selector)
	return nil
}

func (p *Page) Fill(selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailFillSelector != "" && p.FailFillSelector == selector {
		return fmt.Errorf("fill: element %q detached", selector)
	}
	p.Filled[selector] = value
	return nil
}

func (p *Page) SelectOption(selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Selected[selector] = value
	return nil
}

func (p *Page) Upload(selector, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.Selectors[selector] {
		return fmt.Errorf("upload: selector %q not found", selector)
	}
	p.Uploads[selector] = path
	return nil
}

func (p *Page) Fields() ([]browser.FormField, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]browser.FormField, len(p.FormFields))
	copy(out, p.FormFields)
	return out, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Engine hands out queued fake pages.
type Engine struct {
	mu sync.Mutex

	Pages     []*Page
	LaunchErr error

	served int
}

func NewEngine(pages ...*Page) *Engine {
	return &Engine{Pages: pages}
}

func (e *Engine) NewPage(context.Context) (browser.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	if e.served >= len(e.Pages) {
		return nil, errors.New("no more fake pages queued")
	}
	page := e.Pages[e.served]
	e.served++
	return page, nil
}

func (e *Engine) Close() error { return nil }
