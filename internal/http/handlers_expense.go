package http

import (
	"net/http"

	"pocketwatcher/internal/auth"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/log"
)

func ownerOf(r *http.Request) string {
	id, _ := auth.OwnerFrom(r.Context())
	return id
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.expenses.List(r.Context(), ownerOf(r))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if list == nil {
		list = []core.Expense{}
	}
	s.respond(w, r, NewJSONResponse().Field("expenses", list))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := ParseNewExpense(NewRequestBodyParser(w, r))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	created, err := s.expenses.Add(r.Context(), ownerOf(r), e)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.logChanged(r, log.OpCreate, created)
	s.respond(w, r, NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+created.ID).
		Field("expense", created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	patch, err := ParseExpensePatch(NewRequestBodyParser(w, r))
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}

	updated, err := s.expenses.Update(r.Context(), ownerOf(r), r.PathValue("id"), patch)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.logChanged(r, log.OpUpdate, updated)
	s.respond(w, r, NewJSONResponse().Field("expense", updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.Delete(r.Context(), ownerOf(r), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.logChanged(r, log.OpDelete, core.Expense{ID: id, OwnerID: ownerOf(r)})
	s.respond(w, r, NewJSONResponse().Field("success", true))
}

func (s *Server) logChanged(r *http.Request, op string, e core.Expense) {
	m, _ := e.Money()
	s.events.LogExpenseChanged(r.Context(), op, e.ID, e.OwnerID, e.Category, m.Cents)
}
