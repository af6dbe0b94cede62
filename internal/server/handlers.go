package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/internal/store"
	"github.com/sartorproj/regiocast/pipeline"
	"github.com/sartorproj/regiocast/timeseries"
)

// ForecastRequest is the body of POST /api/forecast.
type ForecastRequest struct {
	DatasetID string   `json:"dataset_id" binding:"required"`
	Regions   []string `json:"regions" binding:"required"`
	Variable  string   `json:"variable" binding:"required"`
	Horizon   int      `json:"horizon"`
}

// ForecastResponse is the reply of POST /api/forecast.
type ForecastResponse struct {
	Reports []pipeline.RegionReport `json:"reports"`
}

// DatasetResponse describes an uploaded dataset.
type DatasetResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Rows      int              `json:"rows"`
	Regions   []dataset.Region `json:"regions"`
	Variables []string         `json:"variables"`
}

func (s *Server) uploadDataset(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file: " + err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	ds, err := dataset.Load(fh.Filename, f, s.opts.Schema)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	regions, err := ds.Regions()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := s.Register(ds)
	s.logger.Info("dataset uploaded", "id", id, "name", ds.Name, "rows", ds.Rows())

	c.JSON(http.StatusCreated, DatasetResponse{
		ID:        id,
		Name:      ds.Name,
		Rows:      ds.Rows(),
		Regions:   regions,
		Variables: ds.NumericVariables(),
	})
}

func (s *Server) lookup(c *gin.Context) (*dataset.Dataset, bool) {
	ds, ok := s.dataset(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
	}
	return ds, ok
}

func (s *Server) listRegions(c *gin.Context) {
	ds, ok := s.lookup(c)
	if !ok {
		return
	}
	regions, err := ds.Regions()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

func (s *Server) listVariables(c *gin.Context) {
	ds, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"variables": ds.NumericVariables()})
}

func (s *Server) runForecast(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ds, ok := s.dataset(req.DatasetID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
		return
	}

	reports, ok := s.run(c, ds, pipeline.Request{
		Regions:  req.Regions,
		Variable: req.Variable,
		Horizon:  req.Horizon,
	})
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ForecastResponse{Reports: reports})
}

func (s *Server) exportForecast(c *gin.Context) {
	ds, ok := s.lookup(c)
	if !ok {
		return
	}

	horizon := 0
	if v := c.Query("horizon"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "horizon must be an integer"})
			return
		}
		horizon = n
	}

	code := c.Param("region")
	reports, ok := s.run(c, ds, pipeline.Request{
		Regions:  []string{code},
		Variable: c.Query("variable"),
		Horizon:  horizon,
	})
	if !ok {
		return
	}

	report := reports[0]
	if !report.HasForecast() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "no forecast available",
			"status": report.Status,
			"reason": report.Diagnostic,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=forecast_%s.csv", code))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := timeseries.WriteCSV(c.Writer, report.Forecast); err != nil {
		s.logger.Error("export failed", "region", code, "error", err)
	}
}

// run executes a request, records it and writes the error response itself
// when it fails.
func (s *Server) run(c *gin.Context, ds *dataset.Dataset, req pipeline.Request) ([]pipeline.RegionReport, bool) {
	ctx := c.Request.Context()

	reports, err := s.runner.Run(ctx, ds, req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case dataset.IsPrecondition(err), errors.Is(err, pipeline.ErrNoRegions):
			status = http.StatusBadRequest
		case ctx.Err() != nil:
			status = http.StatusRequestTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}

	if s.runs != nil {
		runs := make([]store.Run, len(reports))
		for i := range reports {
			runs[i] = store.RunFromReport(ds.Name, &reports[i])
		}
		if err := s.runs.Save(ctx, runs...); err != nil {
			s.logger.Error("recording runs failed", "error", err)
		}
	}

	return reports, true
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	runs, err := s.runs.List(c.Request.Context(), store.Filter{
		Region:   c.Query("region"),
		Variable: c.Query("variable"),
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
