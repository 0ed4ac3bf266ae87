package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/response"
)

const profilePictureField = "profilePicture"

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.StudentDetail, error)
	Create(ctx context.Context, req dto.StudentRequest, picture io.Reader) (*models.StudentDetail, error)
	Update(ctx context.Context, id int64, req dto.StudentRequest, picture io.Reader) (*models.StudentDetail, error)
	Delete(ctx context.Context, id int64) error
}

// StudentHandler handles student endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs a new handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param groupId query int false "Group ID"
// @Param search query string false "Search by name or IIN"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "lastName, firstName, iin, birthDate, createdAt"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	groupID, ok := queryID(c, "groupId")
	if !ok {
		return
	}
	filter := models.StudentFilter{ListParams: listParams(c), GroupID: groupID}
	students, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Description Accepts JSON or multipart/form-data with an optional profilePicture file
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	req, picture, ok := h.bindStudent(c)
	if !ok {
		return
	}
	if picture != nil {
		defer picture.Close()
	}

	student, err := h.service.Create(c.Request.Context(), req, readerOrNil(picture))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, picture, ok := h.bindStudent(c)
	if !ok {
		return
	}
	if picture != nil {
		defer picture.Close()
	}

	student, err := h.service.Update(c.Request.Context(), id, req, readerOrNil(picture))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path int true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// bindStudent reads the payload from JSON or a multipart form. The returned
// file is nil when no picture was uploaded.
func (h *StudentHandler) bindStudent(c *gin.Context) (dto.StudentRequest, io.ReadCloser, bool) {
	var req dto.StudentRequest
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return req, nil, bindJSON(c, &req, "invalid student payload")
	}

	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload").
			WithDetails(map[string]string{"body": err.Error()}))
		return req, nil, false
	}

	header, err := c.FormFile(profilePictureField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, true
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile picture").
			WithDetails(map[string]string{profilePictureField: err.Error()}))
		return req, nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read profile picture"))
		return req, nil, false
	}
	return req, file, true
}

// readerOrNil keeps a nil ReadCloser from becoming a non-nil io.Reader.
func readerOrNil(rc io.ReadCloser) io.Reader {
	if rc == nil {
		return nil
	}
	return rc
}
