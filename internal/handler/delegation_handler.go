package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/service"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/export"
	"github.com/refdesk/refdesk-api/pkg/response"
)

// DelegationHandler exposes the delegation engine and review workflow.
type DelegationHandler struct {
	delegations *service.DelegationService
	pdf         *export.PDFExporter
}

// NewDelegationHandler constructs DelegationHandler.
func NewDelegationHandler(delegations *service.DelegationService, pdf *export.PDFExporter) *DelegationHandler {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &DelegationHandler{delegations: delegations, pdf: pdf}
}

// Get godoc
// @Summary Get match delegation
// @Description Returns the slot assignments and responses for a match
// @Tags Delegations
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /matches/{id}/delegation [get]
func (h *DelegationHandler) Get(c *gin.Context) {
	view, err := h.delegations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Assign godoc
// @Summary Assign a referee to a slot
// @Description Binds a referee to one of the four delegation slots
// @Tags Delegations
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param slot path string true "Slot (main, assistant-1, assistant-2, delegate)"
// @Param payload body dto.AssignSlotRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /matches/{id}/delegation/slots/{slot} [put]
func (h *DelegationHandler) Assign(c *gin.Context) {
	var req dto.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.delegations.Assign(c.Request.Context(), c.Param("id"), c.Param("slot"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Remove godoc
// @Summary Clear a slot
// @Description Removes the referee bound to a slot; clearing an empty slot is a no-op
// @Tags Delegations
// @Produce json
// @Param id path string true "Match ID"
// @Param slot path string true "Slot"
// @Param expectedVersion query int false "Optimistic concurrency guard"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/delegation/slots/{slot} [delete]
func (h *DelegationHandler) Remove(c *gin.Context) {
	var req dto.RemoveSlotRequest
	if raw := c.Query("expectedVersion"); raw != "" {
		version, err := strconv.Atoi(raw)
		if err != nil || version < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "expectedVersion must be a non-negative integer"))
			return
		}
		req.ExpectedVersion = version
	}

	view, err := h.delegations.Remove(c.Request.Context(), c.Param("id"), c.Param("slot"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Confirm godoc
// @Summary Confirm a delegation
// @Description Finalises the delegation once every required slot is accepted
// @Tags Delegations
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.ConfirmDelegationRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /matches/{id}/delegation/confirm [post]
func (h *DelegationHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.delegations.ConfirmAll(c.Request.Context(), c.Param("id"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SetNotes godoc
// @Summary Set delegation notes
// @Tags Delegations
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body object true "Notes payload"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/delegation/notes [put]
func (h *DelegationHandler) SetNotes(c *gin.Context) {
	var payload struct {
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.delegations.SetNotes(c.Request.Context(), c.Param("id"), actorFromContext(c), payload.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Respond godoc
// @Summary Respond to an assignment
// @Description Accept or decline the slot assignment addressed to the acting referee
// @Tags Delegations
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param slot path string true "Slot"
// @Param payload body dto.RespondRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /matches/{id}/delegation/slots/{slot}/respond [post]
func (h *DelegationHandler) Respond(c *gin.Context) {
	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.delegations.Respond(c.Request.Context(), c.Param("id"), c.Param("slot"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// MyAssignments godoc
// @Summary List my assignments
// @Description Lists the acting referee's pending and accepted assignments on upcoming matches
// @Tags Delegations
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /me/assignments [get]
func (h *DelegationHandler) MyAssignments(c *gin.Context) {
	actor := actorFromContext(c)
	if actor.RefereeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no referee profile linked to this account"))
		return
	}

	assignments, err := h.delegations.MyAssignments(c.Request.Context(), actor.RefereeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// OfficialsSheet godoc
// @Summary Download the match officials sheet
// @Description Renders the delegation as a printable PDF
// @Tags Delegations
// @Produce application/pdf
// @Param id path string true "Match ID"
// @Success 200 {file} binary
// @Router /matches/{id}/delegation/sheet [get]
func (h *DelegationHandler) OfficialsSheet(c *gin.Context) {
	sheet, err := h.delegations.OfficialsSheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	content, err := h.pdf.RenderOfficialsSheet(*sheet)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render officials sheet"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="officials-sheet-%s.pdf"`, c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", content)
}
