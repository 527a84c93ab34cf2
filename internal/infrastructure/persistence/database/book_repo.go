package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// bookRepository 图书仓储实现（GORM）
// 设计说明：
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误（如ISBN重复），转换为业务错误
// 4. 所有操作通过dbFromContext参与TxManager开启的事务
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Save 插入或整体覆盖
func (r *bookRepository) Save(ctx context.Context, b *book.Book) (*book.Book, error) {
	model := toBookModel(b)
	db := dbFromContext(ctx, r.db)

	if b.IsNew() {
		if err := db.Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return nil, book.DuplicateISBNError(b.ISBN)
			}
			return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建图书失败")
		}
		// 回填自增ID
		b.ID = model.ID
		b.CreatedAt = model.CreatedAt
		b.UpdatedAt = model.UpdatedAt
		return b, nil
	}

	// 只更新可编辑字段，created_at保持不变
	// 不使用db.Save：记录不存在时它会退化为插入
	result := db.Model(model).
		Select("title", "author", "isbn", "publication_year", "quantity", "updated_at").
		Updates(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return nil, book.DuplicateISBNError(b.ISBN)
		}
		return nil, apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新图书失败")
	}
	// MySQL的RowsAffected只统计实际变化的行，内容相同时为0，需再确认记录是否存在
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&BookModel{}).Where("id = ?", b.ID).Count(&count).Error; err != nil {
			return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "更新图书失败")
		}
		if count == 0 {
			return nil, book.NotFoundError(b.ID)
		}
	}

	b.UpdatedAt = model.UpdatedAt
	return b, nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := dbFromContext(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}

	return toBookEntity(&model), nil
}

// FindByISBN 根据ISBN精确查找
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	err := dbFromContext(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}

	return toBookEntity(&model), nil
}

// FindByAuthor 根据作者精确查找
func (r *bookRepository) FindByAuthor(ctx context.Context, author string) ([]*book.Book, error) {
	return r.find(dbFromContext(ctx, r.db).Where("author = ?", author))
}

// FindByTitleContains 书名子串查找（忽略大小写）
// 用LOWER而不是ILIKE，三种方言行为一致
func (r *bookRepository) FindByTitleContains(ctx context.Context, text string) ([]*book.Book, error) {
	query := dbFromContext(ctx, r.db).
		Where("LOWER(title) LIKE ? ESCAPE '"+likeEscapeChar+"'", containsPattern(text))
	return r.find(query)
}

// FindAll 查询全部图书
func (r *bookRepository) FindAll(ctx context.Context) ([]*book.Book, error) {
	return r.find(dbFromContext(ctx, r.db))
}

// Delete 删除图书（物理删除）
// 记录不存在时为空操作，存在性检查由领域服务负责
func (r *bookRepository) Delete(ctx context.Context, b *book.Book) error {
	if err := dbFromContext(ctx, r.db).Delete(&BookModel{}, b.ID).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "删除图书失败")
	}
	return nil
}

// find 执行列表查询，结果按ID升序
func (r *bookRepository) find(query *gorm.DB) ([]*book.Book, error) {
	var models []BookModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

// =========================================
// 辅助函数：模型转换
// =========================================

// toBookModel 领域实体 → GORM模型
func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublicationYear: b.PublicationYear,
		Quantity:        b.Quantity,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:              model.ID,
		Title:           model.Title,
		Author:          model.Author,
		ISBN:            model.ISBN,
		PublicationYear: model.PublicationYear,
		Quantity:        model.Quantity,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
