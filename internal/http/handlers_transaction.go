package http

import (
	"net/http"

	"finwell/internal/core"
	"finwell/internal/log"
	authmw "finwell/internal/middleware/auth"
	"finwell/internal/services"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpList)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), authmw.GetOwnerID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpList)
		return
	}
	OK(presentTransactions(txs)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	t, err := s.deps.Transactions.Get(r.Context(), authmw.GetOwnerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpRead)
		return
	}
	OK(presentTransaction(t)).Write(w)
}

// readTransaction reads the body of a new transaction.
func readTransaction(p *RequestBodyParser, owner string) (core.Transaction, error) {
	categoryID, _ := p.ID("category_id", true)
	amount, _ := p.Amount("amount", true)
	date, _ := p.Date("date", true)
	description, _ := p.String("description", false)
	if err := p.Err(); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Owner:       owner,
		Category:    core.Category{ID: categoryID},
		Amount:      amount,
		Date:        date,
		Description: description,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	t, err := readTransaction(p, authmw.GetOwnerID(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpCreate)
		return
	}

	res, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpCreate)
		return
	}
	Created(presentTransactionWrite(res)).Write(w)
}

// handleUpdateTransaction replaces category, amount and date. description is
// optional and left untouched when absent.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	categoryID, _ := p.ID("category_id", true)
	amount, _ := p.Amount("amount", true)
	date, _ := p.Date("date", true)
	patch := services.TransactionPatch{CategoryID: &categoryID, Amount: &amount, Date: &date}
	if v, ok := p.String("description", false); ok {
		patch.Description = &v
	}
	if err := p.Err(); err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}

	res, err := s.deps.Transactions.Patch(r.Context(), authmw.GetOwnerID(r.Context()), id, patch)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}
	OK(presentTransactionWrite(res)).Write(w)
}

func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}

	var patch services.TransactionPatch
	if v, ok := p.ID("category_id", false); ok {
		patch.CategoryID = &v
	}
	if v, ok := p.Amount("amount", false); ok {
		patch.Amount = &v
	}
	if v, ok := p.Date("date", false); ok {
		patch.Date = &v
	}
	if v, ok := p.String("description", false); ok {
		patch.Description = &v
	}
	if err := p.Err(); err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}

	res, err := s.deps.Transactions.Patch(r.Context(), authmw.GetOwnerID(r.Context()), id, patch)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}
	OK(presentTransactionWrite(res)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), authmw.GetOwnerID(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
