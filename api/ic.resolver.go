package api

import (
	"factorlens/internal/calculator"
	"factorlens/internal/domain"
	l3_service "factorlens/internal/service/l3"
	"factorlens/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IcTestRequest struct {
	Panel *panelInput `json:"panel"`
	factorInput
	Method string `json:"method"`
}

type icSummaryResponse struct {
	Mean       *float64 `json:"mean"`
	Stdev      *float64 `json:"stdev"`
	IR         *float64 `json:"ir"`
	AbsIR      *float64 `json:"absIR"`
	ValidDates int      `json:"validDates"`
	TotalDates int      `json:"totalDates"`
	Degenerate bool     `json:"degenerate"`
}

type IcTestResponse struct {
	RunID   uuid.UUID                `json:"runID"`
	Method  domain.CorrelationMethod `json:"method"`
	Dates   []string                 `json:"dates"`
	Ic      []*float64               `json:"ic"`
	Summary icSummaryResponse        `json:"summary"`
	Profile *domain.Profile          `json:"profile,omitempty"`
}

func newIcSummaryResponse(s calculator.IcSummary) icSummaryResponse {
	return icSummaryResponse{
		Mean:       util.NullableFloat(s.Mean),
		Stdev:      util.NullableFloat(s.Stdev),
		IR:         util.NullableFloat(s.IR),
		AbsIR:      util.NullableFloat(s.AbsIR),
		ValidDates: s.ValidDates,
		TotalDates: s.TotalDates,
		Degenerate: s.Degenerate,
	}
}

func (h ApiHandler) icTest(c *gin.Context) {
	profile, endProfile := domain.NewProfile()
	ctx := domain.NewCtxWithProfile(c.Request.Context(), profile)

	var requestBody IcTestRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}

	method := requestBody.Method
	if method == "" {
		method = h.Config.Method
	}
	correlationMethod, err := domain.NewCorrelationMethod(method)
	if err != nil {
		returnErrorJson(err, c)
		return
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

	tester, err := l3_service.NewIcTester(panel, correlationMethod, h.Config.Workers)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	series, err := tester.RunBacktest(ctx, factor)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	endProfile()

	c.JSON(200, IcTestResponse{
		RunID:   series.RunID,
		Method:  series.Method,
		Dates:   formatDates(series.Dates),
		Ic:      util.NullableFloats(series.Values),
		Summary: newIcSummaryResponse(*tester.Metrics()),
		Profile: profile,
	})
}
