package http

import (
	"net/http"

	"finwell/internal/core"
	"finwell/internal/log"
	authmw "finwell/internal/middleware/auth"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner := authmw.GetOwnerID(r.Context())
	cats, err := s.deps.Categories.List(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpList)
		return
	}
	OK(presentCategories(cats)).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	c, err := s.deps.Categories.Get(r.Context(), authmw.GetOwnerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpRead)
		return
	}
	OK(presentCategory(c)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	name, _ := p.String("name", true)
	typ, _ := p.String("type", true)
	if err := p.Err(); err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpCreate)
		return
	}

	c, err := s.deps.Categories.Create(r.Context(), core.Category{
		Owner: authmw.GetOwnerID(r.Context()),
		Name:  name,
		Type:  core.CategoryType(typ),
	})
	if err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpCreate)
		return
	}
	Created(presentCategory(c)).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	name, _ := p.String("name", true)
	typ, _ := p.String("type", true)
	if err := p.Err(); err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpUpdate)
		return
	}

	c, err := s.deps.Categories.Update(r.Context(), core.Category{
		ID:    id,
		Owner: authmw.GetOwnerID(r.Context()),
		Name:  name,
		Type:  core.CategoryType(typ),
	})
	if err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpUpdate)
		return
	}
	OK(presentCategory(c)).Write(w)
}

func (s *Server) handlePatchCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	p := s.parseBody(w, r)
	if p == nil {
		return
	}
	var (
		name *string
		typ  *core.CategoryType
	)
	if v, ok := p.String("name", false); ok {
		name = &v
	}
	if v, ok := p.String("type", false); ok {
		t := core.CategoryType(v)
		typ = &t
	}
	if err := p.Err(); err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpUpdate)
		return
	}

	c, err := s.deps.Categories.Patch(r.Context(), authmw.GetOwnerID(r.Context()), id, name, typ)
	if err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpUpdate)
		return
	}
	OK(presentCategory(c)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		NotFoundError().Write(w)
		return
	}
	if err := s.deps.Categories.Delete(r.Context(), authmw.GetOwnerID(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.ComponentHTTP, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
