package server

import (
	"bytes"
	"net/http"
	"time"

	"go.uber.org/zap"

	"highrise/internal/models"
	"highrise/internal/report"
)

func (s *Server) handleInquiriesExport(w http.ResponseWriter, r *http.Request, user *models.User) {
	inquiries, err := s.store.ListInquiries(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteInquiries(&buf, inquiries); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.log.Info("inquiries exported", zap.String("by", user.ID), zap.Int("rows", len(inquiries)))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="inquiries-`+time.Now().Format("20060102")+`.xlsx"`)
	buf.WriteTo(w)
}
