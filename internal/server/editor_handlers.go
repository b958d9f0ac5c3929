package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"highrise/internal/editor"
	"highrise/internal/models"
	"highrise/internal/richtext"
	"highrise/internal/upload"
)

// dateTimeLocal is the value format of an <input type="datetime-local">.
const dateTimeLocal = "2006-01-02T15:04"

func editorPath(postID string) string {
	if postID == "" {
		return "/editor"
	}
	return "/editor/" + postID
}

// workspace returns the session's open editor for postID, loading the post
// on first use. A post that fails to load is not kept.
func (s *Server) workspace(r *http.Request, user *models.User, postID string) (*editor.Editor, error) {
	key := workspaceKey(sessionID(r), postID)
	if ed, ok := s.workspaces.get(key); ok {
		return ed, nil
	}
	ed := editor.New(s.store,
		editor.WithHistoryDebounce(s.cfg.Editor.HistoryDebounce),
		editor.WithWordsPerMinute(s.cfg.Editor.WordsPerMinute))
	if postID != "" {
		if err := ed.Load(r.Context(), postID); err != nil {
			return ed, err
		}
		if v := ed.View(); v.AuthorID != user.ID && !user.IsAdmin() {
			return nil, fmt.Errorf("%w: post %s belongs to another author", editor.ErrPermissionDenied, postID)
		}
	}
	s.workspaces.put(key, ed)
	return ed, nil
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request, user *models.User) {
	postID := chi.URLParam(r, "id")
	ed, err := s.workspace(r, user, postID)
	switch {
	case errors.Is(err, editor.ErrPermissionDenied):
		s.renderError(w, r, http.StatusForbidden, "You can only edit your own posts.")
		return
	case errors.Is(err, editor.ErrFetchFailed):
		s.log.Warn("load post for editing", zap.String("post", postID), zap.Error(err))
		s.flash(w, r, Flash{Kind: flashError, Title: "Could not load post", Message: "Starting a new post instead."})
	case err != nil:
		s.serverError(w, r, err)
		return
	}
	s.renderEditor(w, r, http.StatusOK, ed, postID)
}

func (s *Server) renderEditor(w http.ResponseWriter, r *http.Request, status int, ed *editor.Editor, postID string) {
	v := ed.View()
	action := editorPath(postID)
	if !v.Editing {
		action = editorPath("")
	}
	s.render(w, r, status, "editor", map[string]any{
		"Editor":     v,
		"Action":     action,
		"Categories": models.Categories,
		"Busy":       v.State == editor.Submitting,
		"Preview":    template.HTML(richtext.Sanitize(v.Content)),
	})
}

func (s *Server) handleEditorAction(w http.ResponseWriter, r *http.Request, user *models.User) {
	postID := chi.URLParam(r, "id")
	ed, err := s.workspace(r, user, postID)
	switch {
	case errors.Is(err, editor.ErrPermissionDenied):
		s.renderError(w, r, http.StatusForbidden, "You can only edit your own posts.")
		return
	case errors.Is(err, editor.ErrFetchFailed):
		s.flash(w, r, Flash{Kind: flashError, Title: "Could not load post", Message: "It may have been deleted."})
		http.Redirect(w, r, editorPath(""), http.StatusSeeOther)
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(s.cfg.Uploads.MaxBytes + 1<<20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	self := editorPath(postID)
	key := workspaceKey(sessionID(r), postID)

	cover := ed.View().CoverImage
	if err := applyFields(ed, r); err != nil {
		s.flashError(w, r, err)
		http.Redirect(w, r, self, http.StatusSeeOther)
		return
	}
	s.releaseCover(r, key, cover, ed)

	switch action := r.FormValue("action"); action {
	case "", "update":
	case "undo":
		_, err = ed.Undo()
	case "redo":
		_, err = ed.Redo()
	case "embed":
		err = ed.EmbedYouTube(r.FormValue("youtube_url"))
	case "image":
		err = s.uploadFile(r, "image", func(img *upload.Image) error {
			return ed.InsertImage(img.URL, r.FormValue("alt"))
		})
	case "cover":
		err = s.uploadFile(r, "cover", func(img *upload.Image) error {
			old := ed.View().CoverImage
			if err := ed.SetCoverImage(img.URL); err != nil {
				s.deleteUpload(r, img.PublicID)
				return err
			}
			s.workspaces.remember(key, img.URL, img.PublicID)
			s.releaseCover(r, key, old, ed)
			return nil
		})
	case "draft":
		s.submit(w, r, user, ed, key, postID, editor.Draft)
		return
	case "publish":
		s.submit(w, r, user, ed, key, postID, editor.Publish)
		return
	case "delete":
		s.deletePost(w, r, user, ed, key, postID)
		return
	default:
		s.renderError(w, r, http.StatusBadRequest, fmt.Sprintf("Unknown editor action %q.", action))
		return
	}
	if err != nil {
		s.flashError(w, r, err)
	}
	http.Redirect(w, r, self, http.StatusSeeOther)
}

// applyFields copies the submitted form into the editor. Fields missing
// from the form and fields equal to the current value are left alone.
func applyFields(ed *editor.Editor, r *http.Request) error {
	v := ed.View()
	form := r.PostForm

	if title, ok := form["title"]; ok && title[0] != v.Title {
		if err := ed.SetTitle(title[0]); err != nil {
			return err
		}
	}
	// compared with the slug shown in the form, so a title change alone
	// still re-derives it
	if slug, ok := form["slug"]; ok && slug[0] != v.Slug {
		if err := ed.SetSlug(slug[0]); err != nil {
			return err
		}
	}
	if c, ok := form["category"]; ok && models.Category(c[0]) != v.Category {
		if err := ed.SetCategory(models.Category(c[0])); err != nil {
			return err
		}
	}
	if raw, ok := form["tags"]; ok {
		if tags := editor.ParseTags(raw[0]); !slices.Equal(tags, v.Tags) {
			if err := ed.SetTags(tags); err != nil {
				return err
			}
		}
	}
	if meta, ok := form["meta_description"]; ok && strings.TrimSpace(meta[0]) != v.MetaDescription {
		if err := ed.SetMetaDescription(meta[0]); err != nil {
			return err
		}
	}
	if raw, ok := form["publish_date"]; ok {
		var at *time.Time
		if raw[0] != "" {
			t, err := time.ParseInLocation(dateTimeLocal, raw[0], time.UTC)
			if err != nil {
				return fmt.Errorf("%w: %q", errInvalidPublishDate, raw[0])
			}
			at = &t
		}
		if !sameTime(at, v.PublishDate) {
			if err := ed.SetPublishDate(at); err != nil {
				return err
			}
		}
	}
	if cover, ok := form["cover_image"]; ok && strings.TrimSpace(cover[0]) != v.CoverImage {
		if err := ed.SetCoverImage(strings.TrimSpace(cover[0])); err != nil {
			return err
		}
	}
	if content, ok := form["content"]; ok {
		body := strings.ReplaceAll(content[0], "\r\n", "\n")
		if body != v.Content {
			if err := ed.SetContent(body); err != nil {
				return err
			}
		}
	}
	return nil
}

var errInvalidPublishDate = errors.New("invalid publish date")

// sameTime compares at minute precision, the resolution of the form input.
func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

func (s *Server) uploadFile(r *http.Request, field string, use func(*upload.Image) error) error {
	file, hdr, err := r.FormFile(field)
	if err != nil {
		return fmt.Errorf("%w: choose a file first", upload.ErrEmptyFile)
	}
	defer file.Close()
	img, err := s.uploads.Upload(r.Context(), hdr.Filename, file)
	if err != nil {
		return err
	}
	s.log.Info("image uploaded", zap.String("url", img.URL), zap.Int64("bytes", img.Size))
	return use(img)
}

// releaseCover deletes the image at old when it was uploaded in this
// workspace and is no longer the cover. Saved covers are never touched.
func (s *Server) releaseCover(r *http.Request, key, old string, ed *editor.Editor) {
	if old == "" || old == ed.View().CoverImage {
		return
	}
	if id, ok := s.workspaces.release(key, old); ok {
		s.deleteUpload(r, id)
	}
}

func (s *Server) deleteUpload(r *http.Request, publicID string) {
	if err := s.uploads.Delete(r.Context(), publicID); err != nil {
		s.log.Warn("delete unused upload", zap.String("public_id", publicID), zap.Error(err))
		return
	}
	s.log.Info("unused upload deleted", zap.String("public_id", publicID))
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, user *models.User, ed *editor.Editor, key, postID string, mode editor.Mode) {
	res, err := ed.Submit(r.Context(), user, mode)
	var verrs editor.ValidationErrors
	switch {
	case err == nil:
		s.workspaces.drop(key)
		title := "Draft saved"
		if mode == editor.Publish {
			title = "Post published"
		}
		s.log.Info("post saved", zap.String("post", res.PostID), zap.String("author", user.ID), zap.String("title", title))
		s.flash(w, r, Flash{Kind: flashSuccess, Title: title})
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	case errors.As(err, &verrs):
		s.renderEditor(w, r, http.StatusUnprocessableEntity, ed, postID)
	case errors.Is(err, editor.ErrPermissionDenied):
		s.flash(w, r, Flash{Kind: flashError, Title: "Permission denied", Message: strings.TrimPrefix(err.Error(), editor.ErrPermissionDenied.Error()+": ")})
		s.renderEditor(w, r, http.StatusForbidden, ed, postID)
	default:
		s.flashError(w, r, err)
		http.Redirect(w, r, editorPath(postID), http.StatusSeeOther)
	}
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request, user *models.User, ed *editor.Editor, key, postID string) {
	res, err := ed.Delete(r.Context(), user, r.FormValue("confirm") == "yes")
	switch {
	case err == nil:
		s.workspaces.drop(key)
		s.log.Info("post deleted", zap.String("post", res.PostID), zap.String("by", user.ID))
		s.flash(w, r, Flash{Kind: flashSuccess, Title: "Post deleted"})
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	case errors.Is(err, editor.ErrConfirmationRequired):
		s.flash(w, r, Flash{Kind: flashInfo, Title: "Confirm deletion", Message: "Tick the confirmation box to delete this post."})
		http.Redirect(w, r, editorPath(postID), http.StatusSeeOther)
	case errors.Is(err, editor.ErrPermissionDenied):
		s.renderError(w, r, http.StatusForbidden, "You can only delete your own posts.")
	default:
		s.flashError(w, r, err)
		http.Redirect(w, r, editorPath(postID), http.StatusSeeOther)
	}
}

// flashError turns an editor or upload failure into a toast.
func (s *Server) flashError(w http.ResponseWriter, r *http.Request, err error) {
	f := Flash{Kind: flashError, Title: "Something went wrong", Message: "Please try again."}
	switch {
	case errors.Is(err, editor.ErrInvalidEmbedURL):
		f.Title, f.Message = "Invalid YouTube URL", "Use a youtu.be/<id> or youtube.com/watch?v=<id> link."
	case errors.Is(err, editor.ErrInvalidImageURL):
		f.Title, f.Message = "Invalid image URL", "Images must be http(s) links or site paths."
	case errors.Is(err, upload.ErrEmptyFile), errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, upload.ErrUnsupportedType):
		f.Title, f.Message = "Upload failed", err.Error()
	case errors.Is(err, errInvalidPublishDate):
		f.Title, f.Message = "Invalid publish date", err.Error()
	case errors.Is(err, editor.ErrBusy):
		f.Title, f.Message = "Please wait", "A submission is already in progress."
	case errors.Is(err, editor.ErrSaveFailed):
		s.log.Error("save post", zap.Error(err))
		f.Title = "Could not save post"
	case errors.Is(err, editor.ErrDeleteFailed):
		s.log.Error("delete post", zap.Error(err))
		f.Title = "Could not delete post"
	default:
		s.log.Error("editor action", zap.Error(err))
	}
	s.flash(w, r, f)
}

