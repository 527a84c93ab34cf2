package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/flash"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 页面提示信息
const (
	msgBookAdded   = "Book added successfully!"
	msgBookUpdated = "Book updated successfully!"
	msgBookDeleted = "Book deleted successfully!"
	msgNotFound    = "Book not found"
)

// BookViewHandler 图书页面处理器
// 设计说明：
// 1. 写操作采用POST-重定向-GET：成功跳转列表页，失败跳回表单页
// 2. 结果提示通过flash消息带到下一次页面渲染
type BookViewHandler struct {
	bookService book.Service
	listBooks   *appbook.ListBooksUseCase
	flash       flash.Store
	logger      *zap.Logger
}

// NewBookViewHandler 创建图书页面处理器
func NewBookViewHandler(
	bookService book.Service,
	listBooks *appbook.ListBooksUseCase,
	flashStore flash.Store,
	logger *zap.Logger,
) *BookViewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookViewHandler{
		bookService: bookService,
		listBooks:   listBooks,
		flash:       flashStore,
		logger:      logger,
	}
}

// List 图书列表页（?q=按书名搜索）
func (h *BookViewHandler) List(c *gin.Context) {
	query := c.Query("q")
	messages := h.flash.Pop(c)

	books, err := h.listBooks.Execute(c.Request.Context(), appbook.ListBooksRequest{Title: query})
	status := http.StatusOK
	if err != nil {
		h.logError(c, "查询图书列表失败", err)
		messages.Error = userMessage(err)
		status = apperrors.HTTPStatus(err)
	}

	c.HTML(status, "books.html", gin.H{
		"Title": "Books",
		"Flash": messages,
		"Books": books,
		"Query": query,
	})
}

// AddForm 新增图书表单页
func (h *BookViewHandler) AddForm(c *gin.Context) {
	c.HTML(http.StatusOK, "add-book.html", gin.H{
		"Title": "Add Book",
		"Flash": h.flash.Pop(c),
		"Book":  dto.BookForm{Quantity: "1"},
	})
}

// Add 提交新增图书
func (h *BookViewHandler) Add(c *gin.Context) {
	b, err := h.bindForm(c)
	if err == nil {
		_, err = h.bookService.AddBook(c.Request.Context(), b)
	}
	if err != nil {
		h.logError(c, "添加图书失败", err)
		h.redirect(c, "/books/add", flash.Error, userMessage(err))
		return
	}

	h.redirect(c, "/books", flash.Success, msgBookAdded)
}

// EditForm 编辑图书表单页
func (h *BookViewHandler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.redirect(c, "/books", flash.Error, msgNotFound)
		return
	}

	b, err := h.bookService.GetBookByID(c.Request.Context(), id)
	if err != nil {
		msg := msgNotFound
		if !errors.Is(err, book.ErrBookNotFound) {
			h.logError(c, "查询图书失败", err)
			msg = userMessage(err)
		}
		h.redirect(c, "/books", flash.Error, msg)
		return
	}

	c.HTML(http.StatusOK, "edit-book.html", gin.H{
		"Title": "Edit Book",
		"Flash": h.flash.Pop(c),
		"ID":    b.ID,
		"Book":  dto.FromEntity(b),
	})
}

// Update 提交图书更新
func (h *BookViewHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.redirect(c, "/books", flash.Error, notFoundMessage(c.Param("id")))
		return
	}

	b, err := h.bindForm(c)
	if err == nil {
		_, err = h.bookService.UpdateBook(c.Request.Context(), id, b)
	}
	if err != nil {
		h.logError(c, "更新图书失败", err)
		h.redirect(c, "/books/edit/"+c.Param("id"), flash.Error, userMessage(err))
		return
	}

	h.redirect(c, "/books", flash.Success, msgBookUpdated)
}

// Delete 删除图书
func (h *BookViewHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.redirect(c, "/books", flash.Error, notFoundMessage(c.Param("id")))
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		h.logError(c, "删除图书失败", err)
		h.redirect(c, "/books", flash.Error, userMessage(err))
		return
	}

	h.redirect(c, "/books", flash.Success, msgBookDeleted)
}

// bindForm 绑定表单并转换为领域实体
func (h *BookViewHandler) bindForm(c *gin.Context) (*book.Book, error) {
	var form dto.BookForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, dto.BindError(err)
	}
	return form.ToEntity()
}

// redirect 写入flash消息后302跳转
func (h *BookViewHandler) redirect(c *gin.Context, location string, kind flash.Kind, text string) {
	h.flash.Set(c, kind, text)
	c.Redirect(http.StatusFound, location)
}

// logError 业务错误记Debug，系统错误记Error
func (h *BookViewHandler) logError(c *gin.Context, msg string, err error) {
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	}
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, fields...)
		return
	}
	h.logger.Debug(msg, fields...)
}
