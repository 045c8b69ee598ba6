package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
	"NewsNarrator/internal/usecase"
)

const narrationStatusHeader = "X-Narration-Status"

type handler struct {
	service NewsService
	audio   ports.AudioStore
	logger  *slog.Logger
}

type generateAudioRequest struct {
	Text string `json:"text"`
}

type audioLink struct {
	Index  int                    `json:"index"`
	URL    string                 `json:"url"`
	Status domain.NarrationStatus `json:"status"`
}

type reportResponse struct {
	RunID        string                   `json:"run_id"`
	Company      string                   `json:"company"`
	Records      domain.ResultSet         `json:"records"`
	Distribution map[domain.Sentiment]int `json:"distribution"`
	Audio        []audioLink              `json:"audio"`
}

// companyParam decodes the path segment. Echo leaves it escaped whenever the
// raw path differs from Go's own encoding, e.g. "AT%26T".
func companyParam(c echo.Context) (string, error) {
	company, err := url.PathUnescape(c.Param("company"))
	if err != nil {
		return "", fmt.Errorf("invalid company name: %w", err)
	}
	return strings.TrimSpace(company), nil
}

func (h *handler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "News Sentiment Analysis API is running"})
}

func (h *handler) news(c echo.Context) error {
	company, err := companyParam(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	run, err := h.service.Run(c.Request().Context(), company)
	if err != nil {
		return detail(c, statusFor(err), err.Error())
	}
	if len(run.Records) == 0 {
		return detail(c, http.StatusNotFound, fmt.Sprintf("No news found for %s", company))
	}
	return c.JSON(http.StatusOK, run.Records)
}

// report runs the pipeline and the narration pass, ordered for the dashboard.
func (h *handler) report(c echo.Context) error {
	ctx := c.Request().Context()
	company, err := companyParam(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}

	run, err := h.service.Run(ctx, company)
	if err != nil {
		return detail(c, statusFor(err), err.Error())
	}
	if len(run.Records) == 0 {
		return detail(c, http.StatusNotFound, fmt.Sprintf("No news found for %s", company))
	}

	artifacts, err := h.service.Narrate(ctx, run)
	if err != nil {
		return detail(c, statusFor(err), err.Error())
	}

	links := make([]audioLink, 0, len(artifacts))
	for _, a := range artifacts {
		links = append(links, audioLink{Index: a.Index, URL: "/audio/" + a.Path, Status: a.Status})
	}

	return c.JSON(http.StatusOK, reportResponse{
		RunID:        run.ID,
		Company:      run.Company,
		Records:      usecase.SortByScore(run.Records),
		Distribution: run.Records.Distribution(),
		Audio:        links,
	})
}

func (h *handler) generateAudio(c echo.Context) error {
	var req generateAudioRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return detail(c, http.StatusBadRequest, "No text provided")
	}

	artifact, err := h.service.NarrateText(c.Request().Context(), req.Text)
	if err != nil {
		return detail(c, statusFor(err), err.Error())
	}

	rc, err := h.audio.Open(artifact.Path)
	if err != nil {
		return detail(c, http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(narrationStatusHeader, string(artifact.Status))
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(artifact.Path)))
	return c.Stream(http.StatusOK, "audio/mpeg", rc)
}

func (h *handler) serveAudio(c echo.Context) error {
	rel := path.Join(c.Param("run"), c.Param("file"))
	rc, err := h.audio.Open(rel)
	if errors.Is(err, os.ErrNotExist) {
		return detail(c, http.StatusNotFound, "Audio not found")
	}
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, "audio/mpeg", rc)
}

func (h *handler) run(c echo.Context) error {
	run, err := h.service.LoadRun(c.Request().Context(), c.Param("id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		return detail(c, http.StatusNotFound, fmt.Sprintf("Run %s not found", c.Param("id")))
	}
	if err != nil {
		return detail(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, run)
}
