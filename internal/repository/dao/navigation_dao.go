package dao

import (
	"context"
	"fmt"

	"oneplace/internal/domain/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type NavigationDAO struct{ DB *gorm.DB }

func NewNavigationDAO(db *gorm.DB) *NavigationDAO { return &NavigationDAO{DB: db} }

func (d *NavigationDAO) tracer() trace.Tracer { return otel.Tracer("dao.navigation") }

// ListAll 读取全部节点，不过滤；按 id 升序保证输出稳定
func (d *NavigationDAO) ListAll(ctx context.Context) ([]model.NavigationNode, error) {
	ctx, span := d.tracer().Start(ctx, "NavigationDAO.ListAll")
	defer span.End()
	var list []model.NavigationNode
	if err := d.DB.WithContext(ctx).Model(&model.NavigationNode{}).Order("id ASC").Find(&list).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list navigation: %w", err)
	}
	span.SetAttributes(attribute.Int("navigation.rows", len(list)))
	return list, nil
}

// Count 供 seeder 判断是否为空表
func (d *NavigationDAO) Count(ctx context.Context) (int64, error) {
	ctx, span := d.tracer().Start(ctx, "NavigationDAO.Count")
	defer span.End()
	var n int64
	if err := d.DB.WithContext(ctx).Model(&model.NavigationNode{}).Count(&n).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("count navigation: %w", err)
	}
	return n, nil
}

func (d *NavigationDAO) Create(ctx context.Context, n *model.NavigationNode) error {
	ctx, span := d.tracer().Start(ctx, "NavigationDAO.Create")
	defer span.End()
	if err := d.DB.WithContext(ctx).Omit("Parent", "Children").Create(n).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("create navigation %q: %w", n.Title, err)
	}
	return nil
}

// Transaction 在同一事务内执行 fn，fn 拿到的是绑定 tx 的 DAO；fn 返回错误即整体回滚
func (d *NavigationDAO) Transaction(ctx context.Context, fn func(tx *NavigationDAO) error) error {
	ctx, span := d.tracer().Start(ctx, "NavigationDAO.Transaction")
	defer span.End()
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&NavigationDAO{DB: tx})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
