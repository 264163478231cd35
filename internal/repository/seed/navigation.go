package seed

import (
	"context"
	"fmt"

	"oneplace/internal/domain/model"
	"oneplace/internal/repository/dao"
)

// Navigation 仅在 navigation 表为空时写入 items（深度优先，父先于子）。
// 判空与全部写入在同一事务内，任何一条失败整体回滚，下次启动会重新尝试。
// 返回写入条数；非空表直接跳过。
func Navigation(ctx context.Context, d *dao.NavigationDAO, items []model.MenuItem) (int, error) {
	inserted := 0
	err := d.Transaction(ctx, func(tx *dao.NavigationDAO) error {
		n, err := tx.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		var insert func(parentID *int64, list []model.MenuItem) error
		insert = func(parentID *int64, list []model.MenuItem) error {
			for _, it := range list {
				node := &model.NavigationNode{Title: it.Title, Icon: it.Icon, Link: it.Link, ParentID: parentID}
				if err := tx.Create(ctx, node); err != nil {
					return fmt.Errorf("seed navigation: %w", err)
				}
				inserted++
				if len(it.Childs) > 0 {
					id := node.ID
					if err := insert(&id, it.Childs); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return insert(nil, items)
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
