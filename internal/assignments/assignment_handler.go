package assignments

import (
	"net/http"
	"strconv"
	"strings"

	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/metadata"
	"assetdesk/pkg/models"
	"assetdesk/pkg/security"

	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	service *AssignmentService
}

func NewHandler(service *AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

func (h *AssignmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/assignments", security.Authorize(metadata.RoleAdmin), h.CreateAssignment)
	router.GET("/assignments", security.Authorize(metadata.RoleUser), h.GetAssignments)
	router.GET("/assignments/:id", security.Authorize(metadata.RoleUser), h.GetAssignment)
	router.PATCH("/assignments/:id/state", security.Authorize(metadata.RoleUser), h.RespondAssignment)
}

func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	assignment, err := h.service.Create(req, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) GetAssignments(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	filter := models.AssignmentFilter{
		Query:        c.Query("query"),
		AssignedDate: c.Query("assignedDate"),
	}
	if states := c.Query("states"); states != "" {
		filter.States = strings.Split(states, ",")
	}

	var err error
	if page := c.Query("page"); page != "" {
		if filter.Page, err = strconv.Atoi(page); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
			return
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if filter.Limit, err = strconv.Atoi(limit); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}

	result, err := h.service.FindAll(filter, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment id"})
		return
	}

	assignment, err := h.service.FindOne(id, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *AssignmentHandler) RespondAssignment(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment id"})
		return
	}

	var req models.RespondAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	assignment, err := h.service.Respond(id, req, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assignment)
}
