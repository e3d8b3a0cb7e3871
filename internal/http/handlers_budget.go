package http

import (
	"net/http"

	"finwell/internal/core"
	"finwell/internal/log"
	authmw "finwell/internal/middleware/auth"
	"finwell/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpList)
		return
	}
	budgets, err := s.deps.Budgets.List(r.Context(), authmw.GetOwnerID(r.Context()), period)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpList)
		return
	}
	OK(presentBudgets(budgets)).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	b, err := s.deps.Budgets.Get(r.Context(), authmw.GetOwnerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpRead)
		return
	}
	OK(presentBudget(b)).Write(w)
}

func readBudget(p *RequestBodyParser, owner string) (core.Budget, error) {
	categoryID, _ := p.ID("category_id", true)
	amount, _ := p.Amount("amount", true)
	period, _ := p.Period("period", true)
	if err := p.Err(); err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Owner:    owner,
		Category: core.Category{ID: categoryID},
		Amount:   amount,
		Period:   period,
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	b, err := readBudget(p, authmw.GetOwnerID(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpCreate)
		return
	}

	st, err := s.deps.Budgets.Create(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpCreate)
		return
	}
	Created(presentBudget(st)).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	b, err := readBudget(p, authmw.GetOwnerID(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	b.ID = id

	st, err := s.deps.Budgets.Update(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	OK(presentBudget(st)).Write(w)
}

func (s *Server) handlePatchBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}

	var patch services.BudgetPatch
	if v, ok := p.ID("category_id", false); ok {
		patch.CategoryID = &v
	}
	if v, ok := p.Amount("amount", false); ok {
		patch.Amount = &v
	}
	if v, ok := p.Period("period", false); ok {
		patch.Period = &v
	}
	if err := p.Err(); err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}

	st, err := s.deps.Budgets.Patch(r.Context(), authmw.GetOwnerID(r.Context()), id, patch)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	OK(presentBudget(st)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	if err := s.deps.Budgets.Delete(r.Context(), authmw.GetOwnerID(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
