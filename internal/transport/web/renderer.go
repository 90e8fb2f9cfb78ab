package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/navigation"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/view"
)

//go:embed templates
var templateFS embed.FS

// raw HTML in comments is escaped since WithUnsafe is not set
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Page is what the layout renders around a view.
type Page struct {
	Title     string
	User      session.User
	LoggedIn  bool
	RoleNames string
	Menu      []navigation.Link
	Notices   []view.Notice
	Data      interface{}
}

// Renderer renders pages inside the shared layout.
type Renderer struct {
	menu    *navigation.Menu
	notices *view.Notices
	logger  *slog.Logger
	pages   map[string]*template.Template
}

func NewRenderer(menu *navigation.Menu, notices *view.Notices, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tpl, err := template.New(name).
			Funcs(baseFuncs()).
			Funcs(requestFuncs(nil, session.User{})).
			ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = tpl
	}

	return &Renderer{menu: menu, notices: notices, logger: logger, pages: pages}, nil
}

// Render writes page name with status. Pending notices of the browser are
// taken and shown once.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	tpl, ok := rd.pages[name]
	if !ok {
		rd.logger.ErrorContext(r.Context(), "render: unknown page", "page", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := Page{Title: title, Data: data}
	if store, ok := session.FromContext(r.Context()); ok {
		if u, ok := store.User(); ok {
			page.User = u
			page.LoggedIn = true
			page.RoleNames = roleNames(u.Roles)
			page.Menu = rd.menu.For(u.Roles, r.URL.Path)
		}
		if rd.notices != nil {
			page.Notices = rd.notices.Take(store.Scope())
		}
	}

	clone, err := tpl.Clone()
	if err != nil {
		rd.logger.ErrorContext(r.Context(), "render: clone failed", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	clone.Funcs(requestFuncs(r, page.User))

	var buf bytes.Buffer
	if err := clone.ExecuteTemplate(&buf, "layout", page); err != nil {
		rd.logger.ErrorContext(r.Context(), "render: execute failed", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Menu exposes the navigation menu for route checks.
func (rd *Renderer) Menu() *navigation.Menu {
	return rd.menu
}

func roleNames(roles role.Set) string {
	labels := make([]string, 0, roles.Len())
	for _, r := range roles.Slice() {
		labels = append(labels, r.Label())
	}
	return strings.Join(labels, ", ")
}

func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := markdown.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"ratingScale": func() []int {
			out := make([]int, 0, appraisal.MaxRating)
			for i := appraisal.MinRating; i <= appraisal.MaxRating; i++ {
				out = append(out, i)
			}
			return out
		},
		"add": func(a, b int) int { return a + b },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}

// requestFuncs binds helpers to one request. r is nil while parsing.
func requestFuncs(r *http.Request, user session.User) template.FuncMap {
	return template.FuncMap{
		"csrfField": func() template.HTML {
			if r == nil {
				return ""
			}
			return csrf.TemplateField(r)
		},
		"hasRole": func(tag string) bool {
			return user.HasRole(role.Parse(tag))
		},
	}
}
