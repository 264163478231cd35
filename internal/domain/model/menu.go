package model

// MenuItem 导航接口的响应结构，可无限嵌套。
// 可选字段用指针，未设置时序列化为 null；无子节点时 Childs 为 nil（输出 null 而非 []）。
type MenuItem struct {
	Title  string     `json:"title"`
	Icon   *string    `json:"icon"`
	Link   *string    `json:"link"`
	Childs []MenuItem `json:"childs"`
}

// MenuGroup 单层分组，目前没有接口使用
type MenuGroup struct {
	Title     string     `json:"title"`
	MenuItems []MenuItem `json:"menu_items"`
}

// StammdatenMenu 旧版 /navigation 写死返回的树
func StammdatenMenu() MenuItem {
	return MenuItem{
		Title: "Stammdaten",
		Childs: []MenuItem{
			{Title: "Kontakte"},
			{Title: "Produkte"},
			{Title: "Kunden"},
			{Title: "Lieferanten"},
		},
	}
}
