package returns

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

type ReturnHandler struct {
	service *ReturnService
}

func NewHandler(service *ReturnService) *ReturnHandler {
	return &ReturnHandler{service: service}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/returns", security.Authorize(metadata.RoleUser), h.CreateRequestReturn)
	router.GET("/returns", security.Authorize(metadata.RoleAdmin), h.GetRequestReturns)
	router.GET("/returns/:id", security.Authorize(metadata.RoleAdmin), h.GetRequestReturn)
	router.PATCH("/returns/:id/complete", security.Authorize(metadata.RoleAdmin), h.CompleteRequestReturn)
	router.DELETE("/returns/:id", security.Authorize(metadata.RoleAdmin), h.CancelRequestReturn)
}

func (h *ReturnHandler) CreateRequestReturn(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateRequestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	requestReturn, err := h.service.Create(req, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, requestReturn.TransformToResponse())
}

func (h *ReturnHandler) GetRequestReturns(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	filter := models.RequestReturnFilter{
		ReturnedDate: c.Query("returnedDate"),
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

func (h *ReturnHandler) GetRequestReturn(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid return request id"})
		return
	}

	requestReturn, err := h.service.FindOne(id, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requestReturn.TransformToResponse())
}

func (h *ReturnHandler) CompleteRequestReturn(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid return request id"})
		return
	}

	requestReturn, err := h.service.Complete(id, actor)
	if err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requestReturn.TransformToResponse())
}

func (h *ReturnHandler) CancelRequestReturn(c *gin.Context) {
	actor, ok := security.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid return request id"})
		return
	}

	if err := h.service.Cancel(id, actor); err != nil {
		c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Return request cancelled"})
}
