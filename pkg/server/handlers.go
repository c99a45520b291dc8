package server

import (
	"encoding/json"
	"net/http"

	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/gin-gonic/gin"
)

// parseInput is the parse half of match and grade requests: logical-form text
// or the web parser's JSON.
type parseInput struct {
	Parse     string          `json:"parse"`
	ParseJSON json.RawMessage `json:"parse_json"`
}

type matchRequest struct {
	parseInput
	Rules string `json:"rules"`
}

type entryView struct {
	Description string `json:"description"`
	Rules       string `json:"rules"`
}

type gradeRequest struct {
	parseInput
	Catalogue string      `json:"catalogue"`
	Entries   []entryView `json:"entries"`
}

func (s *Server) readParse(in parseInput) (frame.Parse, error) {
	return s.svc.ParseInput(in.Parse, in.ParseJSON)
}

// handleMatch matches one rule set against a parse. With ?format=d3 the
// mapping is returned as a force graph.
func (s *Server) handleMatch(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	parse, err := s.readParse(req.parseInput)
	if err != nil {
		handleError(c, err)
		return
	}

	out, err := s.svc.Match(c.Request.Context(), req.Rules, parse)
	if err != nil {
		handleError(c, err)
		return
	}

	if c.Query("format") == "d3" {
		graph, err := s.svc.Graph(out)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, graph)
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

// handleGrade grades a parse against inline entries, a stored catalogue or
// the default catalogue, in that order of preference.
func (s *Server) handleGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	parse, err := s.readParse(req.parseInput)
	if err != nil {
		handleError(c, err)
		return
	}

	entries := make([]catalogue.Entry, 0, len(req.Entries))
	for i, e := range req.Entries {
		rules, err := lf.ParseRules(e.Rules)
		if err != nil {
			handleError(c, errors.Wrapf(err, "entry %d (%q)", i, e.Description))
			return
		}
		entries = append(entries, catalogue.Entry{Description: e.Description, Rules: rules})
	}

	report, err := s.svc.Grade(c.Request.Context(), req.Catalogue, entries, parse)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCatalogues(c *gin.Context) {
	list, err := s.svc.Catalogues()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// handleCatalogue lists a stored catalogue's entries with their rules in
// logical-form text.
func (s *Server) handleCatalogue(c *gin.Context) {
	entries, err := s.svc.CatalogueEntries(c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = entryView{Description: e.Description, Rules: e.Rules.String()}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleOntology(c *gin.Context) {
	info, err := s.svc.LookupType(c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// handleError writes err with the status MapError assigns it. Hints attached
// along the way are passed on to the caller.
func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	body := gin.H{"error": appErr.Message}
	if appErr.Err != nil {
		body["detail"] = appErr.Err.Error()
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		body["hints"] = hints
	}
	if appErr.Code >= http.StatusInternalServerError {
		logger.Named("server").Errorw("request failed",
			logger.FieldRequestID, c.GetString(logger.FieldRequestID),
			logger.FieldError, err)
	}
	c.JSON(appErr.Code, body)
}
