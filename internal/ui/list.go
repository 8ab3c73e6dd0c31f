package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tasksync/internal/shared"
)

var (
	_ list.Item = pairItem{}
)

// pairItem wraps [shared.SyncPair] to implement [list.Item].
type pairItem struct {
	pair shared.SyncPair
}

func (i pairItem) FilterValue() string { return i.pair.ListName }
func (i pairItem) Title() string       { return i.pair.ListName }
func (i pairItem) Description() string {
	return fmt.Sprintf("%s → %s", i.pair.SourceAccount, i.pair.TargetAccount)
}
