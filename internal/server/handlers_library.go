package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonathan/creative-compliance/internal/storage"
)

type saveRequest struct {
	documentRequest
	Name string `json:"name"`
}

type keyRequest struct {
	Key string `json:"key"`
}

// library returns the record library or a 503 error
func (s *Server) library() (*storage.Library, error) {
	if s.deps.Library == nil {
		return nil, &ErrUnavailable{Service: "storage"}
	}
	return s.deps.Library, nil
}

// listResponse reports a degraded store next to the (possibly empty) list
func listResponse(lib *storage.Library, records []storage.Record) gin.H {
	return gin.H{"records": records, "degraded": lib.Degraded()}
}

func (s *Server) handleListTemplates(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, listResponse(lib, lib.Templates(c.Request.Context())))
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	rec, err := lib.Template(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, rec)
}

func (s *Server) saveRecord(c *gin.Context, push func(*storage.Library, *gin.Context, saveRequest) (storage.Record, error)) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req saveRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	rec, err := push(lib, c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleSaveTemplate(c *gin.Context) {
	s.saveRecord(c, func(lib *storage.Library, c *gin.Context, req saveRequest) (storage.Record, error) {
		if strings.TrimSpace(req.Name) == "" {
			return storage.Record{}, &ErrValidation{Field: "name", Message: "is required"}
		}
		doc, _, err := decodeDocument(req.Document)
		if err != nil {
			return storage.Record{}, err
		}
		return lib.SaveTemplate(c.Request.Context(), req.Name, doc)
	})
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := lib.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListHistory(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, listResponse(lib, lib.History(c.Request.Context())))
}

func (s *Server) handlePushHistory(c *gin.Context) {
	s.saveRecord(c, func(lib *storage.Library, c *gin.Context, req saveRequest) (storage.Record, error) {
		doc, _, err := decodeDocument(req.Document)
		if err != nil {
			return storage.Record{}, err
		}
		return lib.PushHistory(c.Request.Context(), req.Name, doc)
	})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := lib.ClearHistory(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSetKey stores a service key; keys are never returned by the API
func (s *Server) handleSetKey(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req keyRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		s.respondError(c, &ErrValidation{Field: "key", Message: "is required"})
		return
	}
	if err := lib.SetAPIKey(c.Request.Context(), c.Param("service"), req.Key); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteKey(c *gin.Context) {
	lib, err := s.library()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := lib.DeleteAPIKey(c.Request.Context(), c.Param("service")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
