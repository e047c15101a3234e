package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/editor"
	"github.com/jonathan/creative-compliance/internal/export"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

type documentRequest struct {
	Document json.RawMessage `json:"document"`
	Profile  string          `json:"profile"`
}

type documentResponse struct {
	Document json.RawMessage        `json:"document"`
	Report   types.ComplianceReport `json:"report"`
}

// decodeDocument parses a serialized document and resolves its format
func decodeDocument(raw json.RawMessage) (*document.Document, types.Format, error) {
	if len(raw) == 0 {
		return nil, types.Format{}, &ErrValidation{Field: "document", Message: "is required"}
	}
	doc, err := document.Deserialize(raw, false)
	if err != nil {
		return nil, types.Format{}, err
	}
	f, ok := rulebook.FormatByID(doc.FormatID)
	if !ok {
		return nil, types.Format{}, &ErrValidation{Field: "document.format_id", Message: fmt.Sprintf("unknown format %q", doc.FormatID)}
	}
	return doc, f, nil
}

func formatByID(field, id string) (types.Format, error) {
	f, ok := rulebook.FormatByID(id)
	if !ok {
		return types.Format{}, &ErrValidation{Field: field, Message: fmt.Sprintf("unknown format %q", id)}
	}
	return f, nil
}

// profileFor resolves a profile id, falling back to the configured default
func (s *Server) profileFor(id string) (types.Profile, error) {
	pid := types.ProfileID(strings.ToUpper(strings.TrimSpace(id)))
	if pid == "" {
		pid = s.cfg.DefaultProfile
	}
	if pid == "" {
		return rulebook.DefaultProfile(), nil
	}
	p, ok := rulebook.ProfileByID(pid)
	if !ok {
		return types.Profile{}, &ErrValidation{Field: "profile", Message: fmt.Sprintf("unknown profile %q", id)}
	}
	return p, nil
}

// openEditor decodes a request document into a controller
func (s *Server) openEditor(req documentRequest) (*editor.Controller, types.Format, error) {
	doc, f, err := decodeDocument(req.Document)
	if err != nil {
		return nil, f, err
	}
	p, err := s.profileFor(req.Profile)
	if err != nil {
		return nil, f, err
	}
	c, err := editor.Open(doc, f, p, editor.Options{Logger: s.log})
	return c, f, err
}

func respondDocument(c *gin.Context, ed *editor.Controller) error {
	data, err := ed.Serialize()
	if err != nil {
		return err
	}
	respondOK(c, documentResponse{Document: data, Report: ed.Report()})
	return nil
}

func (s *Server) handleFormats(c *gin.Context) {
	respondOK(c, gin.H{"formats": rulebook.Formats()})
}

func (s *Server) handleProfiles(c *gin.Context) {
	respondOK(c, gin.H{"profiles": rulebook.Profiles()})
}

// handleCheck runs the compliance engine without changing the document
func (s *Server) handleCheck(c *gin.Context) {
	var req documentRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	doc, f, err := decodeDocument(req.Document)
	if err != nil {
		s.respondError(c, err)
		return
	}
	p, err := s.profileFor(req.Profile)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"report": compliance.Check(doc, p, f)})
}

type sanitizeRequest struct {
	Text string `json:"text"`
}

type sanitizeHit struct {
	Term        string `json:"term"`
	Category    string `json:"category"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Replacement string `json:"replacement"`
}

func (s *Server) handleSanitize(c *gin.Context) {
	var req sanitizeRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	hits := compliance.FindProhibited(req.Text)
	out := make([]sanitizeHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, sanitizeHit{Term: h.Term, Category: h.Category, Start: h.Start, End: h.End, Replacement: h.Replacement})
	}
	clean := compliance.Sanitize(req.Text)
	respondOK(c, gin.H{"text": clean, "changed": clean != req.Text, "hits": out})
}

type adaptRequest struct {
	documentRequest
	To string `json:"to"`
}

// handleAdapt re-lays out a creative for another format
func (s *Server) handleAdapt(c *gin.Context) {
	var req adaptRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	to, err := formatByID("to", req.To)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ed, _, err := s.openEditor(req.documentRequest)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := ed.SwitchFormat(to); err != nil {
		s.respondError(c, err)
		return
	}
	if err := respondDocument(c, ed); err != nil {
		s.respondError(c, err)
	}
}

type applyVariantRequest struct {
	documentRequest
	Variant types.Variant `json:"variant"`
}

func (s *Server) handleApplyVariant(c *gin.Context) {
	var req applyVariantRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	ed, _, err := s.openEditor(req.documentRequest)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := ed.ApplyVariant(req.Variant); err != nil {
		s.respondError(c, err)
		return
	}
	if err := respondDocument(c, ed); err != nil {
		s.respondError(c, err)
	}
}

type exportRequest struct {
	documentRequest
	Formats      []string        `json:"formats"`
	Variants     []types.Variant `json:"variants"`
	AutoAdapt    bool            `json:"autoAdapt"`
	CanvasWidth  float64         `json:"canvasWidth"`
	Zoom         float64         `json:"zoom"`
	JPEGTargetKB int             `json:"jpegTargetKB"`
}

// handleExport renders the batch and streams the zip archive back
func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	doc, src, err := decodeDocument(req.Document)
	if err != nil {
		s.respondError(c, err)
		return
	}
	p, err := s.profileFor(req.Profile)
	if err != nil {
		s.respondError(c, err)
		return
	}
	formats := make([]types.Format, 0, len(req.Formats))
	for i, id := range req.Formats {
		f, err := formatByID(fmt.Sprintf("formats[%d]", i), id)
		if err != nil {
			s.respondError(c, err)
			return
		}
		formats = append(formats, f)
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.deps.Exporter.Run(ctx, export.Request{
		Source:       doc,
		SourceFormat: src,
		Profile:      p,
		Variants:     req.Variants,
		Formats:      formats,
		AutoAdapt:    req.AutoAdapt,
		CanvasWidth:  req.CanvasWidth,
		Zoom:         req.Zoom,
		JPEGTargetKB: req.JPEGTargetKB,
	}, nil)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="creatives.zip"`)
	c.Header("X-Export-Files", fmt.Sprintf("%d", len(res.Files)))
	c.Data(http.StatusOK, "application/zip", res.Archive)
}
