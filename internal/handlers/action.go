package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	dom "AgentAction/internal/domain"
	"AgentAction/internal/dto"
	"AgentAction/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrNameRequired is the message for a body without a usable name.
const ErrNameRequired = "Invalid request, 'name' field is required"

const (
	headerInvocationID = "X-Invocation-ID"

	// MaxNameRunes bounds the name drawn on a badge.
	MaxNameRunes = 256
)

var errNameRequired = errors.New(ErrNameRequired)

type ActionHandler struct {
	svc *service.ActionService
}

func NewActionHandler(svc *service.ActionService) *ActionHandler {
	return &ActionHandler{svc: svc}
}

// Process godoc
// @Summary      Process an agent request
// @Description  Generates a "deployed by" badge for the given name and returns it as an HTML img fragment.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        body  body      dto.AgentRequest   true  "Agent request"
// @Success      200   {object}  dto.AgentResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      413   {object}  dto.ErrorResponse
// @Router       /process [post]
func (h *ActionHandler) Process(c *gin.Context) {
	name, err := bindName(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.svc.Process(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Header(headerInvocationID, res.InvocationID)
	c.JSON(http.StatusOK, dto.AgentResponse{Message: res.Message})
}

// ListInvocations godoc
// @Summary      List recent action invocations
// @Tags         actions
// @Produce      json
// @Security     BasicAuth
// @Param        limit  query     int  false  "Max items (default 20, max 100)"
// @Success      200    {object}  dto.ListInvocationsResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      503    {object}  dto.ErrorResponse
// @Router       /invocations [get]
func (h *ActionHandler) ListInvocations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	list, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryDisabled) {
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ListInvocationsResponse{Items: invocationsToResponses(list)})
}

// bindName extracts a string "name" from a JSON object body. The field must
// be present and a string of at most MaxNameRunes runes; an empty string is
// accepted.
func bindName(c *gin.Context) (string, error) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", err
		}
		return "", errNameRequired
	}
	raw, ok := body["name"]
	if !ok || string(raw) == "null" {
		return "", errNameRequired
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", errNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameRunes {
		return "", errNameRequired
	}
	return name, nil
}

func invocationsToResponses(list []dom.Invocation) []dto.InvocationResponse {
	out := make([]dto.InvocationResponse, len(list))
	for i, inv := range list {
		out[i] = dto.InvocationResponse{
			ID:        inv.ID,
			Action:    inv.Action,
			Name:      inv.Name,
			Status:    inv.Status,
			Error:     inv.Error,
			CreatedAt: inv.CreatedAt,
		}
	}
	return out
}
