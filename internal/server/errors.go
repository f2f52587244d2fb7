package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/asaidimu/go-tabula/core/analysis"
	"github.com/asaidimu/go-tabula/core/delimited"
	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/source"
	"github.com/asaidimu/go-tabula/core/workspace"
	"github.com/asaidimu/go-tabula/sqlite"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is the JSON error body returned by every handler.
type APIError struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Err     error    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(status int, code, message string, err error) *APIError {
	return &APIError{Status: status, Code: code, Message: message, Err: err}
}

func badRequest(code, message string) *APIError {
	return newAPIError(http.StatusBadRequest, code, message, nil)
}

func notFound(code, message string) *APIError {
	return newAPIError(http.StatusNotFound, code, message, nil)
}

// fromError maps package sentinels to HTTP errors. Unknown errors become 500.
func fromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, workspace.ErrDatasetNotFound), errors.Is(err, sqlite.ErrNotFound):
		return newAPIError(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found", err)
	case errors.Is(err, analysis.ErrUnknownFeature):
		return newAPIError(http.StatusNotFound, "UNKNOWN_FEATURE", err.Error(), err)
	case errors.Is(err, analysis.ErrNoNumericData):
		return newAPIError(http.StatusUnprocessableEntity, "NO_NUMERIC_DATA", err.Error(), err)
	case errors.Is(err, analysis.ErrTooFewFeatures):
		return newAPIError(http.StatusUnprocessableEntity, "NOT_ENOUGH_FEATURES", err.Error(), err)
	case errors.Is(err, analysis.ErrInvalidClusterCount):
		return newAPIError(http.StatusBadRequest, "INVALID_CLUSTERS", err.Error(), err)
	case errors.Is(err, analysis.ErrNoRecords):
		return newAPIError(http.StatusUnprocessableEntity, "NO_DATA", err.Error(), err)
	case errors.Is(err, source.ErrUnsupportedFormat):
		return newAPIError(http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", err.Error(), err)
	case errors.Is(err, source.ErrEmptyDataset), errors.Is(err, source.ErrTooFewColumns),
		errors.Is(err, delimited.ErrMalformedRow), errors.Is(err, delimited.ErrNoHeader):
		return newAPIError(http.StatusUnprocessableEntity, "INVALID_DATASET", err.Error(), err)
	case errors.Is(err, delimited.ErrNoData):
		return newAPIError(http.StatusUnprocessableEntity, "NO_DATA", err.Error(), err)
	case errors.Is(err, query.ErrInvalidDirection), errors.Is(err, query.ErrInvalidPagination),
		errors.Is(err, query.ErrUnknownOperator), errors.Is(err, query.ErrInvalidCondition):
		return newAPIError(http.StatusBadRequest, "INVALID_QUERY", err.Error(), err)
	}
	return newAPIError(http.StatusInternalServerError, "INTERNAL", "Internal Server Error", err)
}

// abort writes err as the response and logs server-side failures.
func (s *Server) abort(c *gin.Context, err error) {
	apiErr := fromError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		s.logger.Debug("Request rejected",
			zap.String("path", c.FullPath()), zap.String("code", apiErr.Code), zap.Error(err))
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}
