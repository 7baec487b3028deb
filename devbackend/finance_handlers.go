package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-fintrack-client/finance"
	apperrors "github.com/jrsteele09/go-fintrack-client/internal/errors"
)

func (s *Server) ListWalletsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.ledger.Wallets(claimsFrom(r).UserID))
	}
}

func (s *Server) CreateWalletHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req finance.NewWallet
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Error())
			return
		}
		wallet, err := s.ledger.CreateWallet(claimsFrom(r).UserID, req)
		if err != nil {
			s.ledgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, wallet)
	}
}

func (s *Server) ListCategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.ledger.Categories())
	}
}

func (s *Server) ListTransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		walletID := r.URL.Query().Get("walletId")
		if walletID == "" {
			writeFieldErrors(w, map[string]string{"walletId": "walletId is required"})
			return
		}
		txs, err := s.ledger.Transactions(claimsFrom(r).UserID, walletID)
		if err != nil {
			s.ledgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func (s *Server) CreateTransactionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req finance.NewTransaction
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, apperrors.ErrInvalidRequest.Error())
			return
		}
		tx, err := s.ledger.CreateTransaction(claimsFrom(r).UserID, req)
		if err != nil {
			s.ledgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func (s *Server) AnalyticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		fields := map[string]string{}
		from := parseDate(q.Get("from"), "from", fields)
		to := parseDate(q.Get("to"), "to", fields)
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}
		a, err := s.ledger.Analytics(claimsFrom(r).UserID, q.Get("walletId"), from, to)
		if err != nil {
			s.ledgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func (s *Server) ledgerError(w http.ResponseWriter, err error) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		writeFieldErrors(w, fields)
	case errors.Is(err, apperrors.ErrNotFound):
		s.notFound(w)
	default:
		s.internalError(w, err)
	}
}

func parseDate(value, field string, fields map[string]string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(finance.DateLayout, value)
	if err != nil {
		fields[field] = "date must be YYYY-MM-DD"
	}
	return t
}
