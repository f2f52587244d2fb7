package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asaidimu/go-tabula/core/analysis"
	"github.com/asaidimu/go-tabula/core/delimited"
	"github.com/asaidimu/go-tabula/core/format"
	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/source"
	"github.com/asaidimu/go-tabula/core/table"
	"github.com/asaidimu/go-tabula/core/upload"
	"github.com/asaidimu/go-tabula/core/workspace"
	"github.com/asaidimu/go-tabula/sqlite"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var groupNames = map[analysis.GroupName]struct{}{
	analysis.GroupComplete: {},
	analysis.GroupHigh:     {},
	analysis.GroupMedium:   {},
	analysis.GroupLow:      {},
}

type datasetInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Records  int       `json:"records"`
	Fields   int       `json:"fields"`
	LoadedAt time.Time `json:"loadedAt"`
}

func infoOf(ds *workspace.Dataset) datasetInfo {
	return datasetInfo{
		ID:       ds.ID,
		Name:     ds.Name,
		Records:  ds.Table.Len(),
		Fields:   ds.Table.Width(),
		LoadedAt: ds.LoadedAt,
	}
}

// handleUpload accepts a multipart "file" field. POST /upload
func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.abort(c, badRequest("NO_FILE", "No file selected"))
		return
	}

	if res := upload.Validate(fh.Filename, fh.Size, s.uploadOpts...); !res.Valid {
		apiErr := badRequest("INVALID_UPLOAD", "Upload rejected")
		apiErr.Details = res.Errors()
		s.abort(c, apiErr)
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.abort(c, err)
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	t, err := source.Load(ctx, fh.Filename, f, source.WithLogger(s.logger))
	if err != nil {
		s.abort(c, err)
		return
	}

	ds, err := s.ws.Load(fh.Filename, t)
	if err != nil {
		s.abort(c, err)
		return
	}
	if s.store != nil {
		if err := s.store.Save(ctx, ds.ID, ds.Name, t); err != nil {
			if rmErr := s.ws.Remove(ds.ID); rmErr != nil {
				s.logger.Warn("Failed to discard unsaved dataset", zap.Error(rmErr))
			}
			s.abort(c, fmt.Errorf("failed to persist dataset: %w", err))
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"dataset": infoOf(ds),
		"summary": analysis.Summarize(t),
	})
}

// handleList returns the loaded datasets. GET /datasets
func (s *Server) handleList(c *gin.Context) {
	list := s.ws.List()
	out := make([]datasetInfo, 0, len(list))
	for _, ds := range list {
		out = append(out, infoOf(ds))
	}
	current := ""
	if ds, ok := s.ws.Current(); ok {
		current = ds.ID
	}
	c.JSON(http.StatusOK, gin.H{"datasets": out, "current": current})
}

// handleAnalysis returns the summary and column profiles. GET /datasets/:id/analysis
func (s *Server) handleAnalysis(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	summary := analysis.Summarize(ds.Table)
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"columns": analysis.Profile(ds.Table),
		"display": gin.H{
			"total_records":        format.Number(summary.TotalRecords),
			"overall_completeness": format.Percentage(summary.OverallCompleteness),
		},
	})
}

// handlePreview returns the first rows, optionally of one completeness
// group. GET /datasets/:id/preview?rows=n&group=name
func (s *Server) handlePreview(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	records, ok := s.groupRecords(c, ds)
	if !ok {
		return
	}

	rows := s.previewRows
	if raw := c.Query("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.abort(c, badRequest("INVALID_ROWS", "rows must be a non-negative integer"))
			return
		}
		rows = n
	}

	preview := ds.Table.WithRecords(records).Head(rows)
	c.JSON(http.StatusOK, gin.H{
		"header":  preview.Header,
		"records": preview.Records,
		"total":   len(records),
	})
}

// handleQuery runs a JSON query. An empty body returns every record.
// POST /datasets/:id/query
func (s *Server) handleQuery(c *gin.Context) {
	id := c.Param("id")

	var dsl *query.QueryDSL
	var body query.QueryDSL
	if err := c.ShouldBindJSON(&body); err != nil {
		if !errors.Is(err, io.EOF) {
			s.abort(c, badRequest("INVALID_QUERY", "Malformed query: "+err.Error()))
			return
		}
	} else {
		dsl = &body
	}

	result, err := s.ws.Query(c.Request.Context(), id, dsl)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleUnique lists the distinct values of a field.
// GET /datasets/:id/unique/:field?missing=true
func (s *Server) handleUnique(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	field := c.Param("field")
	if !ds.Table.HasField(field) {
		s.abort(c, notFound("UNKNOWN_FIELD", fmt.Sprintf("Field %q does not exist", field)))
		return
	}

	var opts []query.UniqueOption
	if missing, _ := strconv.ParseBool(c.Query("missing")); missing {
		opts = append(opts, query.IncludeMissing())
	}
	values := query.Unique(ds.Table.Records, field, opts...)
	c.JSON(http.StatusOK, gin.H{"field": field, "values": values, "count": len(values)})
}

// handleAnomalies runs IQR outlier detection. GET /datasets/:id/anomalies/:feature
func (s *Server) handleAnomalies(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	report, err := analysis.DetectAnomalies(ds.Table, c.Param("feature"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleClusters runs k-means over one completeness group.
// GET /datasets/:id/clusters/:group?n_clusters=3
func (s *Server) handleClusters(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	name := analysis.GroupName(c.Param("group"))
	if _, known := groupNames[name]; !known {
		s.abort(c, badRequest("UNKNOWN_GROUP", fmt.Sprintf("Unknown group %q", name)))
		return
	}
	group, found := ds.Completeness.Group(name)
	if !found {
		s.abort(c, notFound("GROUP_NOT_FOUND", fmt.Sprintf("Group %q has no records", name)))
		return
	}

	k := analysis.DefaultClusters
	if raw := c.Query("n_clusters"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.abort(c, badRequest("INVALID_CLUSTERS", "n_clusters must be a positive integer"))
			return
		}
		k = n
	}

	sub := ds.Table.WithRecords(ds.Completeness.Select(ds.Table, name))
	report, err := analysis.ClusterRecords(sub, k)
	if err != nil {
		s.abort(c, err)
		return
	}
	centers := make([][]float64, len(report.Clusters))
	for i := range report.Clusters {
		cl := &report.Clusters[i]
		for j, pos := range cl.Indices {
			cl.Indices[j] = group.Indices[pos]
		}
		centers[i] = cl.Center
	}
	c.JSON(http.StatusOK, gin.H{
		"group_name":      name,
		"total_companies": report.TotalRecords,
		"features_used":   report.Features,
		"cluster_summary": report.Clusters,
		"cluster_centers": centers,
	})
}

// handleExport streams the dataset, or one completeness group of it, as
// delimited text. GET /datasets/:id/export?group=name&delimiter=;
func (s *Server) handleExport(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	records, ok := s.groupRecords(c, ds)
	if !ok {
		return
	}

	opts := []delimited.Option{delimited.WithLogger(s.logger)}
	if d := c.Query("delimiter"); d != "" {
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) || r == '"' || r == '\n' || r == '\r' {
			s.abort(c, badRequest("INVALID_DELIMITER", "delimiter must be a single character"))
			return
		}
		opts = append(opts, delimited.WithDelimiter(r))
	}

	if len(records) == 0 {
		s.abort(c, delimited.ErrNoData)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(ds.Name)))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := delimited.Write(c.Writer, ds.Table.WithRecords(records), opts...); err != nil {
		s.logger.Error("Export interrupted", zap.String("id", ds.ID), zap.Error(err))
	}
}

// handleDelete drops a dataset and its snapshot. DELETE /datasets/:id
func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := s.ws.Remove(id); err != nil {
		s.abort(c, err)
		return
	}
	if s.store != nil {
		if err := s.store.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, sqlite.ErrNotFound) {
			s.abort(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// dataset resolves the :id parameter, writing the error response on failure.
func (s *Server) dataset(c *gin.Context) (*workspace.Dataset, bool) {
	ds, err := s.ws.Get(c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return nil, false
	}
	return ds, true
}

// groupRecords returns the records of the completeness group named by the
// "group" query parameter, or every record when it is absent.
func (s *Server) groupRecords(c *gin.Context, ds *workspace.Dataset) ([]table.Record, bool) {
	raw := c.Query("group")
	if raw == "" {
		return ds.Table.Records, true
	}
	name := analysis.GroupName(raw)
	if _, known := groupNames[name]; !known {
		s.abort(c, badRequest("UNKNOWN_GROUP", fmt.Sprintf("Unknown group %q", raw)))
		return nil, false
	}
	return ds.Completeness.Select(ds.Table, name), true
}

func exportName(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base + ".csv"
}
