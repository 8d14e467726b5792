package httpapi

import "net/http"

type kycUploadRequest struct {
	DocumentType string `json:"documentType"`
}

func (s *Server) handleKYCUpload(w http.ResponseWriter, r *http.Request) {
	var req kycUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.kyc.RequestUpload(r.Context(), claimsFrom(r.Context()).UserID(), req.DocumentType)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": task.Key, "uploadUrl": task.URL})
}

func (s *Server) handleKYCStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.kyc.Status(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	docs := make([]kycDocumentView, 0, len(st.Documents))
	for _, d := range st.Documents {
		docs = append(docs, newKYCDocumentView(d, ""))
	}
	writeJSON(w, http.StatusOK, map[string]any{"kycStatus": string(st.Status), "documents": docs})
}

func (s *Server) handleKYCDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.kyc.Documents(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": newKYCDocumentViews(docs)})
}
