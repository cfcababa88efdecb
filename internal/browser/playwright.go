package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const (
	navigationTimeoutMs = 30000
	selectorTimeoutMs   = 10000
)

// fieldsScript collects visible form controls with enough context to
// map them to profile fields or screening questions.
const fieldsScript = `() => {
	const labelFor = (el) => {
		if (el.labels && el.labels.length > 0) return el.labels[0].innerText.trim();
		if (el.getAttribute('aria-label')) return el.getAttribute('aria-label').trim();
		if (el.placeholder) return el.placeholder.trim();
		const wrapper = el.closest('label');
		if (wrapper) return wrapper.innerText.trim();
		return '';
	};
	const visible = (el) => {
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	const out = [];
	let i = 0;
	for (const el of document.querySelectorAll('input, textarea, select')) {
		if (!visible(el)) continue;
		if (el.type === 'hidden' || el.type === 'submit' || el.type === 'button') continue;
		const marker = 'data-autofill-idx';
		el.setAttribute(marker, String(i));
		const options = [];
		if (el.tagName === 'SELECT') {
			for (const opt of el.options) {
				if (opt.value) options.push(opt.value);
			}
		}
		out.push({
			selector: '[' + marker + '="' + i + '"]',
			name: el.name || el.id || '',
			label: labelFor(el),
			kind: el.tagName === 'SELECT' ? 'select' : (el.type || 'text'),
			value: el.value || '',
			options: options,
			required: el.required === true,
		});
		i++;
	}
	return out;
}`

// Playwright is the shared browser automation engine. The underlying
// runtime and browser are launched lazily, once per process.
type Playwright struct {
	mu       sync.Mutex
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
	logger   *zap.Logger
}

// NewPlaywright creates the engine without launching anything yet.
func NewPlaywright(headless bool, logger *zap.Logger) *Playwright {
	return &Playwright{headless: headless, logger: logger}
}

func (e *Playwright) launchLocked() error {
	if e.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.headless),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("launch chromium: %w", err)
	}

	e.logger.Info("browser engine launched", zap.Bool("headless", e.headless))

	e.pw = pw
	e.browser = browser
	return nil
}

// NewPage launches the engine on first use and opens an isolated page.
func (e *Playwright) NewPage(_ context.Context) (Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.launchLocked(); err != nil {
		return nil, err
	}

	browserCtx, err := e.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &playwrightPage{page: page, browserCtx: browserCtx}, nil
}

// Close stops the browser and the runtime.
func (e *Playwright) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
		e.browser = nil
	}
	if e.pw != nil {
		if err := e.pw.Stop(); err != nil {
			return fmt.Errorf("stop playwright: %w", err)
		}
		e.pw = nil
	}
	return nil
}

type playwrightPage struct {
	page       playwright.Page
	browserCtx playwright.BrowserContext
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navigationTimeoutMs),
	})
	return err
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Exists(selector string) bool {
	count, err := p.page.Locator(selector).Count()
	return err == nil && count > 0
}

func (p *playwrightPage) WaitFor(selector string) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(selectorTimeoutMs),
	})
}

func (p *playwrightPage) Click(selector string) error {
	return p.page.Locator(selector).First().Click()
}

func (p *playwrightPage) Fill(selector, value string) error {
	return p.page.Locator(selector).First().Fill(value)
}

func (p *playwrightPage) SelectOption(selector, value string) error {
	_, err := p.page.Locator(selector).First().SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	return err
}

func (p *playwrightPage) Upload(selector, path string) error {
	return p.page.Locator(selector).First().SetInputFiles(path)
}

func (p *playwrightPage) Fields() ([]FormField, error) {
	raw, err := p.page.Evaluate(fieldsScript)
	if err != nil {
		return nil, fmt.Errorf("collect form fields: %w", err)
	}

	var fields []FormField
	if err := mapstructure.Decode(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode form fields: %w", err)
	}
	return fields, nil
}

func (p *playwrightPage) Close() error {
	if err := p.page.Close(); err != nil {
		return err
	}
	return p.browserCtx.Close()
}
