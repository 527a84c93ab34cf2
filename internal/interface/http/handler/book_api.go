package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// BookAPIHandler 图书JSON API
// 失败时只返回状态码，不带响应体
type BookAPIHandler struct {
	bookService book.Service
	listBooks   *appbook.ListBooksUseCase
	logger      *zap.Logger
}

// NewBookAPIHandler 创建图书API处理器
func NewBookAPIHandler(bookService book.Service, listBooks *appbook.ListBooksUseCase, logger *zap.Logger) *BookAPIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookAPIHandler{
		bookService: bookService,
		listBooks:   listBooks,
		logger:      logger,
	}
}

// List 查询图书列表
// @Summary      查询图书列表
// @Description  不带参数返回全部图书；isbn、author、title三个过滤条件最多指定一个
// @Tags         图书
// @Produce      json
// @Param        isbn    query string false "ISBN精确匹配"
// @Param        author  query string false "作者精确匹配"
// @Param        title   query string false "书名子串（忽略大小写）"
// @Success      200 {array} dto.BookResponse
// @Failure      400 "过滤条件冲突"
// @Failure      500 "系统错误"
// @Router       /books/api [get]
func (h *BookAPIHandler) List(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	books, err := h.listBooks.Execute(c.Request.Context(), appbook.ListBooksRequest{
		ISBN:   query.ISBN,
		Author: query.Author,
		Title:  query.Title,
	})
	if err != nil {
		h.fail(c, apperrors.HTTPStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookListResponse(books))
}

// Get 根据ID查询图书
// @Summary      查询图书详情
// @Tags         图书
// @Produce      json
// @Param        id   path int true "图书ID"
// @Success      200 {object} dto.BookResponse
// @Failure      404 "图书不存在"
// @Router       /books/api/{id} [get]
func (h *BookAPIHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	b, err := h.bookService.GetBookByID(c.Request.Context(), id)
	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, book.ErrBookNotFound) {
			status = apperrors.HTTPStatus(err)
		}
		h.fail(c, status, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookResponse(b))
}

// Create 新增图书
// @Summary      新增图书
// @Description  quantity不传时默认为1
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        request body dto.BookRequest true "图书信息"
// @Success      201 {object} dto.BookResponse
// @Failure      400 "参数错误或ISBN已存在"
// @Router       /books/api [post]
func (h *BookAPIHandler) Create(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, dto.BindError(err))
		return
	}

	saved, err := h.bookService.AddBook(c.Request.Context(), req.ToEntity())
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewBookResponse(saved))
}

// Update 整体更新图书
// @Summary      更新图书
// @Description  任何失败都返回404
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        id      path int true "图书ID"
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} dto.BookResponse
// @Failure      404 "图书不存在或更新失败"
// @Router       /books/api/{id} [put]
func (h *BookAPIHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusNotFound, dto.BindError(err))
		return
	}

	updated, err := h.bookService.UpdateBook(c.Request.Context(), id, req.ToEntity())
	if err != nil {
		h.fail(c, http.StatusNotFound, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookResponse(updated))
}

// Delete 删除图书
// @Summary      删除图书
// @Tags         图书
// @Param        id   path int true "图书ID"
// @Success      204
// @Failure      404 "图书不存在"
// @Router       /books/api/{id} [delete]
func (h *BookAPIHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		h.fail(c, http.StatusNotFound, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// fail 记录错误并返回空响应体
func (h *BookAPIHandler) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Error("图书API请求失败", fields...)
	} else {
		h.logger.Debug("图书API请求失败", fields...)
	}

	c.Status(status)
}
