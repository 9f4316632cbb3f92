package httppresentation

import (
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/account"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
)

// handleCreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body userRequest true "User"
// @Success 201 {object} userResponse
// @Failure 400 {object} errorResponse
// @Router /users/ [post]
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	created, err := h.svc.Accounts.Create(r.Context(), account.CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Age:       req.Age,
		Password:  req.Password,
		Sex:       req.Sex,
		Balance:   req.Balance,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

// handleGetUser godoc
// @Summary Read user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} userResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id} [get]
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	found, err := h.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(found))
}

// handleListUsers godoc
// @Summary List users (short view)
// @Tags users
// @Produce json
// @Success 200 {array} userSummaryResponse
// @Router /users/ [get]
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Accounts.List(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	out := make([]userSummaryResponse, 0, len(users))
	for _, s := range users {
		out = append(out, toUserSummary(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpdateUser godoc
// @Summary Partially update user
// @Description Balance top-ups go through here; a negative balance is rejected. cart_id is ignored.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param patch body userPatchRequest true "Fields to change"
// @Success 200 {object} userResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id} [patch]
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	var req userPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	updated, err := h.svc.Accounts.Update(r.Context(), id, user.Patch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Age:       req.Age,
		Password:  req.Password,
		Sex:       req.Sex,
		Balance:   req.Balance,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// handleDeleteUser godoc
// @Summary Delete user and their cart
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 202 {string} string "confirmation"
// @Failure 404 {object} errorResponse
// @Router /users/{id} [delete]
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if err := h.svc.Accounts.Delete(r.Context(), id); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, fmt.Sprintf("user %d deleted", id))
}

// handleUserWithItems godoc
// @Summary User profile with the items they own
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} userWithItemsResponse
// @Failure 404 {object} errorResponse
// @Router /users/with_items/{id} [get]
func (h *Handler) handleUserWithItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	view, err := h.svc.Accounts.WithItems(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserWithItems(view))
}
