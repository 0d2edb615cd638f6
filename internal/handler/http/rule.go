package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RuleHandler interface {
	// Deduction rules
	CreateDeductionRule(w http.ResponseWriter, r *http.Request)
	ListDeductionRules(w http.ResponseWriter, r *http.Request)
	DeactivateDeductionRule(w http.ResponseWriter, r *http.Request)

	// Overtime rules
	CreateOvertimeRule(w http.ResponseWriter, r *http.Request)
	ListOvertimeRules(w http.ResponseWriter, r *http.Request)
	DeactivateOvertimeRule(w http.ResponseWriter, r *http.Request)
}

type ruleHandlerImpl struct {
	ruleService rule.RuleService
}

func NewRuleHandler(ruleService rule.RuleService) RuleHandler {
	return &ruleHandlerImpl{ruleService: ruleService}
}

func ruleFilterFromQuery(r *http.Request) rule.RuleFilter {
	return rule.RuleFilter{
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
		Date:       queryString(r, "date"),
	}
}

// ========== DEDUCTION RULES ==========

func (h *ruleHandlerImpl) CreateDeductionRule(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req rule.CreateDeductionRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.ruleService.CreateDeductionRule(r.Context(), act, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Deduction rule created", result)
}

func (h *ruleHandlerImpl) ListDeductionRules(w http.ResponseWriter, r *http.Request) {
	result, err := h.ruleService.ListDeductionRules(r.Context(), ruleFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ruleHandlerImpl) DeactivateDeductionRule(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	if err := h.ruleService.DeactivateDeductionRule(r.Context(), act, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Deduction rule deactivated", nil)
}

// ========== OVERTIME RULES ==========

func (h *ruleHandlerImpl) CreateOvertimeRule(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req rule.CreateOvertimeRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.ruleService.CreateOvertimeRule(r.Context(), act, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Overtime rule created", result)
}

func (h *ruleHandlerImpl) ListOvertimeRules(w http.ResponseWriter, r *http.Request) {
	result, err := h.ruleService.ListOvertimeRules(r.Context(), ruleFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ruleHandlerImpl) DeactivateOvertimeRule(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	if err := h.ruleService.DeactivateOvertimeRule(r.Context(), act, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime rule deactivated", nil)
}
