package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListBonds(w http.ResponseWriter, r *http.Request) {
	bonds, err := s.catalog.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]bondView, 0, len(bonds))
	for _, b := range bonds {
		out = append(out, newBondView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bonds": out})
}

func (s *Server) handleGetBond(w http.ResponseWriter, r *http.Request) {
	bond, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bond": newBondView(bond)})
}

func (s *Server) handleBondProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.catalog.Projects(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, newProjectView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

func (s *Server) handleInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.catalog.Investments(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]investmentView, 0, len(investments))
	for _, i := range investments {
		out = append(out, newInvestmentView(i))
	}
	writeJSON(w, http.StatusOK, map[string]any{"investments": out})
}
