// Package presenter renders the dashboard HTML.
//
// Three templates make up a page: layout.html (the document shell), env.html
// (one table per environment) and menu.html (links to the key sections).
// Defaults are compiled in; a template directory replaces all three.
package presenter

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"awsview/awsd/models"
	"awsview/classifier"
	"awsview/errors"
)

const (
	packageName = "presenter"

	layoutTemplate = "layout.html"
	envTemplate    = "env.html"
	menuTemplate   = "menu.html"
)

var requiredTemplates = []string{layoutTemplate, envTemplate, menuTemplate}

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

// Page is everything the layout template needs.
type Page struct {
	Title      string
	StaticURL  string
	Selected   string
	Menu       template.HTML
	Tables     template.HTML
	Instances  int
	ErrorTitle string
	Error      string
}

// Presenter holds the parsed templates. It is safe for concurrent use.
type Presenter struct {
	templates *template.Template
	now       func() time.Time
}

// New parses the templates from dir, or the built-in ones when dir is empty.
func New(dir string) (*Presenter, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, errors.New(errors.ErrTemplate, "unable to open built-in templates", nil, err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return NewFromFS(fsys, time.Now)
}

// NewFromFS parses the templates found in fsys. now is the clock used for
// relative launch times.
func NewFromFS(fsys fs.FS, now func() time.Time) (*Presenter, error) {
	p := &Presenter{now: now}

	funcs := template.FuncMap{
		"ago": p.ago,
	}
	tmpl, err := template.New(packageName).Funcs(funcs).ParseFS(fsys, requiredTemplates...)
	if err != nil {
		return nil, errors.New(errors.ErrTemplate, "unable to parse templates",
			map[string]interface{}{
				"templates": strings.Join(requiredTemplates, ","),
			}, err)
	}
	for _, name := range requiredTemplates {
		if tmpl.Lookup(name) == nil {
			return nil, errors.New(errors.ErrTemplate, "template not defined",
				map[string]interface{}{
					"template": name,
				}, nil)
		}
	}
	p.templates = tmpl

	zap.L().Debug("Templates parsed",
		zap.String("package", packageName),
		zap.String("operation", "template_parse"),
	)
	return p, nil
}

// RenderEnvironmentTable renders the instance table of one environment.
func (p *Presenter) RenderEnvironmentTable(env string, summaries []classifier.Summary) (template.HTML, error) {
	return p.fragment(envTemplate, map[string]interface{}{
		"Env":   env,
		"Hosts": summaries,
	})
}

// RenderMenu renders the list of key sections, marking selected.
func (p *Presenter) RenderMenu(sections []string, selected string) (template.HTML, error) {
	return p.fragment(menuTemplate, map[string]interface{}{
		"Sections": sections,
		"Selected": selected,
	})
}

// RenderTables renders every group, named environments first and the
// unknown group last.
func (p *Presenter) RenderTables(groups classifier.Groups) (template.HTML, error) {
	var b strings.Builder
	for _, env := range groups.Order() {
		table, err := p.RenderEnvironmentTable(env, groups[env])
		if err != nil {
			return "", err
		}
		b.WriteString(string(table))
	}
	return template.HTML(b.String()), nil
}

// RenderPage writes the complete HTML document.
func (p *Presenter) RenderPage(w io.Writer, page Page) error {
	if err := p.templates.ExecuteTemplate(w, layoutTemplate, page); err != nil {
		return errors.New(errors.ErrTemplate, "unable to render page",
			map[string]interface{}{
				"template": layoutTemplate,
			}, err)
	}
	return nil
}

func (p *Presenter) fragment(name string, data interface{}) (template.HTML, error) {
	var b strings.Builder
	if err := p.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", errors.New(errors.ErrTemplate, "unable to render template",
			map[string]interface{}{
				"template": name,
			}, err)
	}
	// Output of html/template is already escaped.
	return template.HTML(b.String()), nil
}

// ago turns a launch time into "3 days ago". Unparseable input gives "".
func (p *Presenter) ago(launchTime string) string {
	if launchTime == "" {
		return ""
	}
	t, err := time.Parse(models.LaunchTimeLayout, launchTime)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, launchTime); err != nil {
			return ""
		}
	}
	return humanize.RelTime(t, p.now(), "ago", "from now")
}

// StaticHandler serves the stylesheet and script the layout links to, with
// prefix stripped from request paths.
func StaticHandler(prefix string) http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}
