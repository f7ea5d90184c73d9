package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gogotex/widgets/internal/widget"
	"github.com/gogotex/widgets/internal/widget/service"
)

type widgetRequest struct {
	Weight int    `json:"weight"`
	Color  string `json:"color"`
}

func abort(c *gin.Context, err error) {
	msg := "internal error"
	var we *widget.Error
	if errors.As(err, &we) {
		msg = we.Message
	}
	c.AbortWithStatusJSON(widget.StatusCode(err), gin.H{"error": msg})
}

// RegisterWidgetRoutes mounts the widget CRUD endpoints under /widgets.
func RegisterWidgetRoutes(r gin.IRoutes, svc service.Service) {
	r.GET("/widgets", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		if list == nil {
			list = []widget.Widget{}
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/widgets/:id", func(c *gin.Context) {
		w, err := svc.Read(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, w)
	})

	r.POST("/widgets", func(c *gin.Context) {
		var req widgetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		w, err := svc.Create(c.Request.Context(), req.Weight, req.Color)
		if err != nil {
			abort(c, err)
			return
		}
		c.Header("Location", "/widgets/"+w.ID)
		c.JSON(http.StatusCreated, w)
	})

	r.PATCH("/widgets/:id", func(c *gin.Context) {
		var req widgetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		w, err := svc.Update(c.Request.Context(), c.Param("id"), req.Weight, req.Color)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, w)
	})

	r.DELETE("/widgets/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
