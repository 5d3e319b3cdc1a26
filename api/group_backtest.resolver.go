package api

import (
	"time"

	"factorlens/internal/domain"
	l3_service "factorlens/internal/service/l3"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GroupBacktestRequest struct {
	Panel *panelInput `json:"panel"`
	factorInput
	// bounded again by the asset count once the panel is known
	NGroups *int `json:"nGroups" binding:"omitempty,min=1,max=1000"`
}

type GroupBacktestResponse struct {
	RunID      uuid.UUID          `json:"runID"`
	Labels     domain.GroupLabels `json:"labels"`
	Dates      []string           `json:"dates"`
	Returns    [][]float64        `json:"returns"`
	Cumulative [][]float64        `json:"cumulative"`
	LongShort  []float64          `json:"longShort"`
	// DegenerateDates counts dates returned as zero rows because their
	// cross-section could not be bucketed.
	DegenerateDates int             `json:"degenerateDates"`
	Profile         *domain.Profile `json:"profile,omitempty"`
}

func (h ApiHandler) groupBacktest(c *gin.Context) {
	profile, endProfile := domain.NewProfile()
	ctx := domain.NewCtxWithProfile(c.Request.Context(), profile)

	var requestBody GroupBacktestRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	nGroups := h.Config.NGroups
	if requestBody.NGroups != nil {
		nGroups = *requestBody.NGroups
	}

	panel, err := h.resolvePanel(requestBody.Panel)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	factor, err := h.resolveFactor(ctx, panel, requestBody.factorInput)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	tester, err := l3_service.NewGroupTester(panel, nGroups, h.Config.Workers)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	result, err := tester.RunBacktest(ctx, factor)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	endProfile()

	c.JSON(200, GroupBacktestResponse{
		RunID:           result.RunID,
		Labels:          result.Labels,
		Dates:           formatDates(result.Dates),
		Returns:         result.Returns,
		Cumulative:      result.Cumulative(),
		LongShort:       result.LongShort(),
		DegenerateDates: result.DegenerateDates,
		Profile:         profile,
	})
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out
}
