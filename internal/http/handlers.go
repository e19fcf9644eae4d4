package http

import (
	"errors"
	"net/http"
	"time"

	"paisa/internal/core"
	"paisa/internal/services"
)

const (
	summaryCacheKey   = "summary"
	breakdownCacheKey = "breakdown"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if view, ok := s.summaryCache.Get(summaryCacheKey); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}
	view := buildSummary(s.svc.Snapshot())
	s.summaryCache.Set(summaryCacheKey, view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if entries, ok := s.breakdownCache.Get(breakdownCacheKey); ok {
		writeJSON(w, http.StatusOK, entries)
		return
	}
	entries := s.svc.Breakdown()
	s.breakdownCache.Set(breakdownCacheKey, entries)
	writeJSON(w, http.StatusOK, entries)
}

// --- Transactions ---

type transactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().Transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paise, err := core.ParseDecimalToPaise(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	tx, err := s.svc.AddTransaction(r.Context(), services.TransactionInput{
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Paise: paise},
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        sanitizeInput(req.Date),
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearTransactions(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

// --- Activities ---

type subitemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Unit     string `json:"unit"`
}

type activityRequest struct {
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Date          string           `json:"date"`
	PaymentMethod string           `json:"paymentMethod"`
	Subitems      []subitemRequest `json:"subitems"`
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().Activities)
}

func parseSubitems(reqs []subitemRequest) ([]services.SubitemInput, error) {
	items := make([]services.SubitemInput, 0, len(reqs))
	for _, si := range reqs {
		paise, err := core.ParseDecimalToPaise(si.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, services.SubitemInput{
			Name:     sanitizeInput(si.Name),
			Price:    core.Money{Paise: paise},
			Quantity: si.Quantity,
			Unit:     sanitizeInput(si.Unit),
		})
	}
	return items, nil
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subitems, err := parseSubitems(req.Subitems)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid subitem price")
		return
	}

	act, err := s.svc.AddActivity(r.Context(), services.ActivityInput{
		Name:          sanitizeInput(req.Name),
		Category:      sanitizeInput(req.Category),
		Date:          sanitizeInput(req.Date),
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		Subitems:      subitems,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, act)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	var act core.Activity
	if err := decodeJSON(r, &act); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	act.ID = r.PathValue("id")

	updated, err := s.svc.UpdateActivity(r.Context(), act)
	if errors.Is(err, services.ErrUnknownActivity) {
		writeError(w, http.StatusNotFound, "unknown activity")
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteActivity(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSubitem(w http.ResponseWriter, r *http.Request) {
	var req subitemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paise, err := core.ParseDecimalToPaise(req.Price)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid price")
		return
	}

	sub, err := s.svc.AddSubitem(r.Context(), r.PathValue("id"), services.SubitemInput{
		Name:     sanitizeInput(req.Name),
		Price:    core.Money{Paise: paise},
		Quantity: req.Quantity,
		Unit:     sanitizeInput(req.Unit),
	})
	if errors.Is(err, services.ErrUnknownActivity) {
		writeError(w, http.StatusNotFound, "unknown activity")
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleRemoveSubitem(w http.ResponseWriter, r *http.Request) {
	err := s.svc.RemoveSubitem(r.Context(), r.PathValue("id"), r.PathValue("subitemID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

// --- Loans ---

type loanRequest struct {
	LenderName   string  `json:"lenderName"`
	LoanType     string  `json:"loanType"`
	Description  string  `json:"description"`
	Principal    string  `json:"principal"`
	InterestRate float64 `json:"interestRate"`
	TenureMonths float64 `json:"tenureMonths"`
	StartDate    string  `json:"startDate"`
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().Loans)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paise, err := core.ParseDecimalToPaise(req.Principal)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid principal")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid start date, want YYYY-MM-DD")
		return
	}

	loan, err := s.svc.AddLoan(r.Context(), services.LoanInput{
		LenderName:        sanitizeInput(req.LenderName),
		LoanType:          sanitizeInput(req.LoanType),
		Description:       sanitizeInput(req.Description),
		Principal:         core.Money{Paise: paise},
		AnnualRatePercent: req.InterestRate,
		TenureMonths:      req.TenureMonths,
		StartDate:         startDate,
	})
	if errors.Is(err, services.ErrInvalidLoan) {
		writeError(w, http.StatusUnprocessableEntity, "invalid loan parameters")
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loan, ok := s.svc.Snapshot().Loans.Find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown loan")
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteLoan(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	Month int `json:"month"`
}

func (s *Server) handlePayEMI(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loan, err := s.svc.PayEMI(r.Context(), r.PathValue("id"), req.Month)
	if errors.Is(err, services.ErrUnknownLoan) {
		writeError(w, http.StatusNotFound, "unknown loan")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, loan)
}

// --- Savings ---

type savingsRequest struct {
	Purpose         string `json:"purpose"`
	Amount          string `json:"amount"`
	TargetDate      string `json:"targetDate"`
	ReminderGapDays int    `json:"reminderGapDays"`
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().Savings)
}

func (s *Server) parseSavings(req savingsRequest) (services.SavingsInput, error) {
	paise, err := core.ParseDecimalToPaise(req.Amount)
	if err != nil {
		return services.SavingsInput{}, err
	}
	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		return services.SavingsInput{}, err
	}
	return services.SavingsInput{
		Purpose:         sanitizeInput(req.Purpose),
		Amount:          core.Money{Paise: paise},
		TargetDate:      targetDate,
		ReminderGapDays: core.SavingsReminderGap(req.ReminderGapDays),
	}, nil
}

func (s *Server) handleCreateSavings(w http.ResponseWriter, r *http.Request) {
	var req savingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := s.parseSavings(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid savings target")
		return
	}

	target, err := s.svc.AddSavingsTarget(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, target)
}

func (s *Server) handleUpdateSavings(w http.ResponseWriter, r *http.Request) {
	var req savingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := s.parseSavings(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid savings target")
		return
	}

	id := r.PathValue("id")
	prev, ok := s.svc.Snapshot().Savings.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown savings target")
		return
	}

	target := prev
	target.Purpose = in.Purpose
	target.Amount = in.Amount
	target.TargetDate = in.TargetDate
	target.ReminderGapDays = in.ReminderGapDays

	updated, err := s.svc.UpdateSavingsTarget(r.Context(), target)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSavings(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveSavingsTarget(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

// --- Notifications ---

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().Notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkAllNotificationsRead(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}
