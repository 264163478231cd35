package model

// NavigationNode 对应 navigation 表：自引用的导航树节点。
// parent_id 为空表示根节点；组装时按 id 建索引解析父子关系，不依赖 Parent/Children 预加载。
type NavigationNode struct {
	ID       int64            `gorm:"primaryKey;column:id" json:"id"`
	Title    string           `gorm:"column:title;not null" json:"title"`
	Icon     *string          `gorm:"column:icon" json:"icon"`
	Link     *string          `gorm:"column:link" json:"link"`
	ParentID *int64           `gorm:"column:parent_id;index" json:"parent_id"`
	Parent   *NavigationNode  `gorm:"foreignKey:ParentID" json:"-"`
	Children []NavigationNode `gorm:"foreignKey:ParentID" json:"-"`
}

func (NavigationNode) TableName() string { return "navigation" }

// IsRoot 无 parent_id 即根
func (n NavigationNode) IsRoot() bool { return n.ParentID == nil }
