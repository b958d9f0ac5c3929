package server

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"highrise/internal/auth"
	"highrise/internal/config"
	"highrise/internal/editor"
	"highrise/internal/models"
	"highrise/internal/richtext"
	"highrise/internal/store"
	"highrise/internal/upload"
	"highrise/web"
)

// Deps are the collaborators a Server is built from.
type Deps struct {
	Config   config.Config
	Store    store.Store
	Auth     *auth.Service
	Sessions *auth.Sessions
	Uploads  *upload.Service
	Log      *zap.Logger
}

type Server struct {
	cfg        config.Config
	store      store.Store
	auth       *auth.Service
	sessions   *auth.Sessions
	uploads    *upload.Service
	log        *zap.Logger
	cookies    *sessions.CookieStore
	tmpl       map[string]*template.Template
	workspaces *workspaces
	router     chi.Router
}

func New(d Deps) (*Server, error) {
	s := &Server{
		cfg:        d.Config,
		store:      d.Store,
		auth:       d.Auth,
		sessions:   d.Sessions,
		uploads:    d.Uploads,
		log:        d.Log,
		workspaces: newWorkspaces(d.Config.Editor.WorkspaceIdle, d.Config.Editor.MaxWorkspaces, nil),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.sessions.OnExpire(s.workspaces.dropSession)

	s.cookies = sessions.NewCookieStore([]byte(d.Config.Server.SessionSecret))
	s.cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(d.Config.Server.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   d.Config.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	tmpl, err := parseTemplates(web.FS, s.funcs())
	if err != nil {
		return nil, err
	}
	s.tmpl = tmpl
	s.router = s.routes()
	return s, nil
}

// parseTemplates pairs every page under templates/ with the layout and the
// shared partials.
func parseTemplates(fsys fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	pages, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	templates := map[string]*template.Template{}
	for _, page := range pages {
		base := path.Base(page)
		if base == "layout.html" || base == "partials.html" {
			continue
		}
		t, err := template.New("layout").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/partials.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		templates[strings.TrimSuffix(base, ".html")] = t
	}
	return templates, nil
}

func (s *Server) funcs() template.FuncMap {
	wpm := s.cfg.Editor.WordsPerMinute
	return template.FuncMap{
		"join": strings.Join,
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"postDate": func(published *time.Time, created time.Time) string {
			if published != nil {
				return published.Format("Jan 2, 2006")
			}
			return created.Format("Jan 2, 2006")
		},
		"excerpt": excerpt,
		"readTime": func(content string) int {
			return editor.ReadTime(editor.WordCount(content), wpm)
		},
		"datetimeLocal": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.UTC().Format(dateTimeLocal)
		},
		"inc": func(i int) int { return i + 1 },
	}
}

// excerpt is the leading text of an HTML body, cut at a word boundary.
func excerpt(content string, n int) string {
	text := richtext.PlainText(content)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	cut := string([]rune(text)[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.loadSession)

	r.Get("/", s.handleHome)
	r.Get("/services", s.handleServices)
	r.Get("/contact", s.handleContact)
	r.Post("/contact", s.handleContactSubmit)
	r.Get("/community", s.handleCommunity)
	r.Get("/community/{id}", s.handlePost)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", s.handleLogin)
		r.Post("/login", s.handleLoginSubmit)
		r.Get("/register", s.handleRegister)
		r.Post("/register", s.handleRegisterSubmit)
		r.Get("/forgot-password", s.handleForgotPassword)
		r.Post("/forgot-password", s.handleForgotPasswordSubmit)
		r.Post("/logout", s.handleLogout)
	})

	r.Get("/editor", s.requireAuth(s.handleEditor))
	r.Post("/editor", s.requireAuth(s.handleEditorAction))
	r.Get("/editor/{id}", s.requireAuth(s.handleEditor))
	r.Post("/editor/{id}", s.requireAuth(s.handleEditorAction))

	r.Get("/admin/inquiries.xlsx", s.requireAuth(s.requireRole(models.RoleAdmin, s.handleInquiriesExport)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	static, _ := fs.Sub(web.FS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	if files := s.uploads.FileServer(); files != nil {
		base := s.cfg.Uploads.BaseURL
		r.Handle(base+"*", http.StripPrefix(base, files))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// render executes the named page inside the layout. Values every page uses
// are added to data here.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	t, ok := s.tmpl[name]
	if !ok {
		s.log.Error("template not found", zap.String("name", name))
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Site"] = s.cfg.Site
	data["User"] = currentUser(r)
	data["Path"] = r.URL.Path
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	data["Flashes"] = s.popFlashes(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error("render", zap.String("template", name), zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", map[string]any{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}
