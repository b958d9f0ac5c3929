package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"highrise/internal/auth"
	"highrise/internal/editor"
	"highrise/internal/models"
	"highrise/internal/richtext"
)

type service struct {
	Name    string
	Summary string
	Topic   string
}

var services = []service{
	{"Free Excel Audit", "We review one of your workbooks and show where formulas, structure and refresh steps can be simplified.", "audit"},
	{"Reporting Automation", "Monthly and weekly reports assembled from your sources without copy and paste.", "reporting"},
	{"Dashboards", "Interactive dashboards built around the decisions your team makes every week.", "dashboards"},
	{"Training", "Hands-on sessions on Excel, Power Query and data visualisation for your staff.", "training"},
}

// contactTopics are the choices of the contact form.
var contactTopics = append(append([]service(nil), services...), service{Name: "Something else", Topic: "other"})

func knownTopic(t string) bool {
	for _, s := range contactTopics {
		if s.Topic == t {
			return true
		}
	}
	return false
}

const homeLatestPosts = 3

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context(), models.PostFilter{Limit: homeLatestPosts})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "home", map[string]any{"Posts": posts})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "services", map[string]any{"Services": services})
}

type contactForm struct {
	Name    string
	Email   string
	Company string
	Topic   string
	Message string
}

const maxContactMessage = 2000

func (f *contactForm) validate() map[string]string {
	errs := map[string]string{}
	if f.Name == "" {
		errs["name"] = "Please tell us your name"
	}
	if !auth.ValidEmail(f.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	switch n := utf8.RuneCountInString(f.Message); {
	case n == 0:
		errs["message"] = "Please enter a message"
	case n > maxContactMessage:
		errs["message"] = fmt.Sprintf("Message must be at most %d characters", maxContactMessage)
	}
	return errs
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	form := contactForm{Topic: r.URL.Query().Get("topic")}
	if !knownTopic(form.Topic) {
		form.Topic = "other"
	}
	s.render(w, r, http.StatusOK, "contact", map[string]any{"Form": form, "Topics": contactTopics})
}

func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	form := contactForm{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Company: strings.TrimSpace(r.FormValue("company")),
		Topic:   r.FormValue("topic"),
		Message: strings.TrimSpace(r.FormValue("message")),
	}
	if !knownTopic(form.Topic) {
		form.Topic = "other"
	}
	if errs := form.validate(); len(errs) > 0 {
		s.render(w, r, http.StatusUnprocessableEntity, "contact", map[string]any{"Form": form, "Topics": contactTopics, "Errors": errs})
		return
	}

	in := &models.Inquiry{
		Name:      form.Name,
		Email:     form.Email,
		Company:   form.Company,
		Topic:     form.Topic,
		Message:   form.Message,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateInquiry(r.Context(), in); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.log.Info("inquiry received", zap.String("id", in.ID), zap.String("topic", in.Topic))
	s.flash(w, r, Flash{Kind: flashSuccess, Title: "Message sent", Message: "Thanks, we will be in touch soon."})
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (s *Server) handleCommunity(w http.ResponseWriter, r *http.Request) {
	var filter models.PostFilter
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, ok := models.ParseCategory(raw)
		if !ok {
			s.renderError(w, r, http.StatusBadRequest, fmt.Sprintf("Unknown category %q.", raw))
			return
		}
		filter.Category = c
	}
	if u := currentUser(r); u != nil {
		filter.DraftsOf = u.ID
	}
	posts, err := s.store.ListPosts(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "community", map[string]any{
		"Posts":      posts,
		"Category":   filter.Category,
		"Categories": models.Categories,
	})
}

type commentView struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := s.store.FindPostByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, "This post does not exist.")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	user := currentUser(r)
	canEdit := user != nil && (user.ID == post.AuthorID || user.IsAdmin())
	if post.Status() == models.StatusDraft && !canEdit {
		s.renderError(w, r, http.StatusNotFound, "This post does not exist.")
		return
	}

	comments, err := s.store.FindCommentsByPostID(ctx, post.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	emails := map[string]string{}
	authorEmail := func(id string) string {
		if e, ok := emails[id]; ok {
			return e
		}
		e := "Former member"
		if u, err := s.store.FindUserByID(ctx, id); err == nil {
			e = u.Email
		}
		emails[id] = e
		return e
	}
	views := make([]commentView, len(comments))
	for i, c := range comments {
		views[i] = commentView{Author: authorEmail(c.AuthorID), Body: c.Body, CreatedAt: c.CreatedAt}
	}

	var author *models.User
	if u, err := s.store.FindUserByID(ctx, post.AuthorID); err == nil {
		author = u
	}
	s.render(w, r, http.StatusOK, "post", map[string]any{
		"Post":     post,
		"Author":   author,
		"Comments": views,
		"CanEdit":  canEdit,
		"ReadTime": editor.ReadTime(editor.WordCount(post.Content), s.cfg.Editor.WordsPerMinute),
		"Body":     template.HTML(richtext.Sanitize(post.Content)),
	})
}
