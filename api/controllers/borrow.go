package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesubash/library-management-system-sub000/api/middleware"
	"github.com/mesubash/library-management-system-sub000/api/responses"
	"github.com/mesubash/library-management-system-sub000/api/validators"
	"github.com/mesubash/library-management-system-sub000/internal/borrow"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	pkgerrors "github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/pagination"
)

type borrowRequestBody struct {
	BookID  uuid.UUID `json:"book_id" validate:"required"`
	DueDate time.Time `json:"due_date" validate:"required"`
}

type rejectBody struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// BorrowRequest submits a member's request for a book.
func BorrowRequest(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body borrowRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Request(r.Context(), borrow.RequestInput{
			UserID:  middleware.UserIDFromContext(r.Context()),
			BookID:  body.BookID,
			DueDate: body.DueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// BorrowList serves the caller's own records; admins see everyone's.
func BorrowList(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := borrow.ListParams{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseBorrowStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown borrow status").
						WithDetails(map[string]any{"status": raw}))
				return
			}
			params.Status = &status
		}

		actorID := middleware.UserIDFromContext(r.Context())
		if middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin) {
			userID, err := validators.ParseQueryUUID(r, "user_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.UserID = userID
			bookID, err := validators.ParseQueryUUID(r, "book_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.BookID = bookID
		} else {
			params.UserID = &actorID
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// BorrowDetail serves one record, owner or admin only.
func BorrowDetail(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "recordId"), "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, _ := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
		view, err := svc.Get(r.Context(), id, middleware.UserIDFromContext(r.Context()), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// BorrowCancel withdraws the caller's own pending request.
func BorrowCancel(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "recordId"), "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Cancel(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// AdminBorrowApprove approves a pending request and reserves the copy.
func AdminBorrowApprove(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "recordId"), "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Approve(r.Context(), id, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminBorrowReject rejects a pending request with a reason.
func AdminBorrowReject(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "recordId"), "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Reject(r.Context(), id, middleware.UserIDFromContext(r.Context()), body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminBorrowPickup marks an approved record as physically handed over.
func AdminBorrowPickup(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "recordId"), "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.ConfirmPickup(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminBorrowReturn closes out a borrowed record and releases the copy.
func AdminBorrowReturn(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "recordId"), "recordId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Return(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
