package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mzawadzki/storekeeper/internal/adapters/http/handlers"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/service"
)

type HistoryController struct {
	storeService *service.StoreService
}

func NewHistoryController(storeService *service.StoreService) *HistoryController {
	return &HistoryController{storeService: storeService}
}

type RecordResponse struct {
	Seq        int64     `json:"id"`
	Message    string    `json:"message"`
	RecordedAt time.Time `json:"recorded_at"`
}

func NewRecordResponse(record *domain.Record) RecordResponse {
	return RecordResponse{
		Seq:        record.Seq,
		Message:    record.Message,
		RecordedAt: record.RecordedAt,
	}
}

// History godoc
// @Summary     Audit history
// @Description Returns audit records; both start_id and end_id must be positive to narrow the range, otherwise the full log is returned
// @Tags        history
// @Produce     json
// @Param       start_id query    int false "First record id, inclusive"
// @Param       end_id   query    int false "Last record id, inclusive"
// @Success     200      {array}  RecordResponse
// @Failure     500      {object} handlers.ErrorResponse
// @Router      /api/v1/history [get]
func (hc *HistoryController) History(c *gin.Context) {
	startSeq := parseSeq(c.Query("start_id"))
	endSeq := parseSeq(c.Query("end_id"))

	records, err := hc.storeService.History(c.Request.Context(), startSeq, endSeq)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}

	response := make([]RecordResponse, len(records))
	for i, record := range records {
		response[i] = NewRecordResponse(record)
	}
	c.JSON(http.StatusOK, response)
}

// parseSeq treats anything that is not a number as an absent bound.
func parseSeq(raw string) int64 {
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}
