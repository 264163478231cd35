package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMenuItemRoundTrip(t *testing.T) {
	tree := MenuItem{
		Title: "Shop",
		Icon:  strPtr("store"),
		Childs: []MenuItem{
			{Title: "Catalog", Link: strPtr("/catalog")},
			{Title: "Orders", Childs: []MenuItem{{Title: "Open"}}},
		},
	}
	b, err := json.Marshal(tree)
	require.NoError(t, err)

	var back MenuItem
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, tree, back)
}

func TestMenuItemNullOptionals(t *testing.T) {
	b, err := json.Marshal(MenuItem{Title: "Kontakte"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Kontakte","icon":null,"link":null,"childs":null}`, string(b))
}

func TestMenuGroupWireShape(t *testing.T) {
	g := MenuGroup{Title: "Stammdaten", MenuItems: []MenuItem{{Title: "Kunden"}}}
	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Stammdaten","menu_items":[{"title":"Kunden","icon":null,"link":null,"childs":null}]}`, string(b))
}

func TestNavigationNodeTable(t *testing.T) {
	parent := int64(1)
	assert.Equal(t, "navigation", NavigationNode{}.TableName())
	assert.True(t, NavigationNode{ID: 1}.IsRoot())
	assert.False(t, NavigationNode{ID: 2, ParentID: &parent}.IsRoot())
}
