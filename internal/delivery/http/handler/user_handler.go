package handler

import (
	"context"
	"net/http"
	"strconv"

	"hospital-appointment-server/internal/delivery/dto"
	"hospital-appointment-server/internal/usecase"
	"hospital-appointment-server/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type UserHandler struct {
	userUsecase usecase.UserUsecase
}

func NewUserHandler(userUsecase usecase.UserUsecase) *UserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

// GetAll handles listing all users
// @Summary List all users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email, specialization or phone"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.userUsecase.GetUsers, "Users retrieved successfully")
}

// GetDoctors handles listing doctor accounts
// @Summary List doctors
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email, specialization or phone"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Router /users/doctors [get]
func (h *UserHandler) GetDoctors(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.userUsecase.GetDoctors, "Doctors retrieved successfully")
}

// GetPatients handles listing patient accounts
// @Summary List patients
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email, specialization or phone"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Router /users/patients [get]
func (h *UserHandler) GetPatients(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.userUsecase.GetPatients, "Patients retrieved successfully")
}

// GetByID handles getting a user by ID
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	user, err := h.userUsecase.GetUser(r.Context(), id)
	if err != nil {
		switch err {
		case usecase.ErrUserNotFound:
			response.NotFound(w, "User not found")
		default:
			response.InternalServerError(w, "Failed to get user")
		}
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

// GetStats handles the user statistics lookup
// @Summary Get user statistics
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /users/stats [get]
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userUsecase.GetUserStats(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get user statistics")
		return
	}

	response.Success(w, http.StatusOK, "User statistics retrieved successfully", stats)
}

func (h *UserHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, query *dto.UserListQuery) (*dto.UserListResponse, error),
	message string,
) {
	query := parseUserListQuery(r)

	result, err := fetch(r.Context(), query)
	if err != nil {
		switch err {
		case usecase.ErrUnknownRole:
			response.Error(w, http.StatusBadRequest, "Unknown role", nil)
		default:
			response.InternalServerError(w, "Failed to get users")
		}
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, message, result.Users, paginationMeta(result.Page, result.Limit, result.Total))
}

func parseUserListQuery(r *http.Request) *dto.UserListQuery {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	return &dto.UserListQuery{
		Role:   q.Get("role"),
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	}
}
