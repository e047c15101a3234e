package server

import (
	"github.com/gin-gonic/gin"

	"github.com/jonathan/creative-compliance/internal/ai"
	"github.com/jonathan/creative-compliance/internal/render"
)

// imageRequest carries a photo as a data URL
type imageRequest struct {
	Image      string `json:"image"`
	UserPrompt string `json:"userPrompt"`
	Mood       string `json:"mood"`
}

func (r imageRequest) decode() (ai.Image, error) {
	if r.Image == "" {
		return ai.Image{}, &ErrValidation{Field: "image", Message: "is required"}
	}
	mime, data, err := render.DecodeDataURL(r.Image)
	if err != nil {
		return ai.Image{}, err
	}
	return ai.Image{MIMEType: mime, Data: data}, nil
}

// orchestrator returns the AI orchestrator or a 503 error
func (s *Server) orchestrator() (*ai.Orchestrator, error) {
	if s.deps.AI == nil {
		return nil, &ErrUnavailable{Service: "AI"}
	}
	return s.deps.AI, nil
}

// imageCall decodes the request image and runs fn with a bounded context
func (s *Server) imageCall(c *gin.Context, fn func(*gin.Context, *ai.Orchestrator, imageRequest, ai.Image) (any, error)) {
	o, err := s.orchestrator()
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req imageRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	img, err := req.decode()
	if err != nil {
		s.respondError(c, err)
		return
	}
	out, err := fn(c, o, req, img)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	s.imageCall(c, func(c *gin.Context, o *ai.Orchestrator, _ imageRequest, img ai.Image) (any, error) {
		ctx, cancel := s.requestContext(c)
		defer cancel()
		return o.AnalyzeProductImage(ctx, img)
	})
}

func (s *Server) handlePeople(c *gin.Context) {
	s.imageCall(c, func(c *gin.Context, o *ai.Orchestrator, _ imageRequest, img ai.Image) (any, error) {
		ctx, cancel := s.requestContext(c)
		defer cancel()
		det, err := o.DetectPeople(ctx, img)
		if err != nil {
			return nil, err
		}
		return gin.H{"detection": det, "requiresConfirmation": ai.PeopleGate(det)}, nil
	})
}

func (s *Server) handleCreative(c *gin.Context) {
	s.imageCall(c, func(c *gin.Context, o *ai.Orchestrator, req imageRequest, img ai.Image) (any, error) {
		ctx, cancel := s.requestContext(c)
		defer cancel()
		return o.GenerateAutonomousCreative(ctx, ai.CreativeRequest{Image: img, UserPrompt: req.UserPrompt, Mood: req.Mood})
	})
}

func (s *Server) handleCopy(c *gin.Context) {
	o, err := s.orchestrator()
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req ai.CopyRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := o.GenerateCopySuggestions(ctx, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (s *Server) handleCampaign(c *gin.Context) {
	o, err := s.orchestrator()
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req ai.CampaignRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := o.GenerateCompleteCampaign(ctx, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// handleRemoveBackground returns the cut-out as a PNG data URL
func (s *Server) handleRemoveBackground(c *gin.Context) {
	if s.deps.Remover == nil {
		s.respondError(c, &ErrUnavailable{Service: "background removal"})
		return
	}
	var req imageRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	img, err := req.decode()
	if err != nil {
		s.respondError(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	out, err := s.deps.Remover.RemoveBackground(ctx, img.Data)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"image": render.EncodeDataURL(render.MimePNG, out)})
}
