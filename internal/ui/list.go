package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spoteemix/internal/models"
)

var _ list.DefaultItem = missingItem{}

// missingItem wraps a [models.ReferenceTrack] that could not be found to implement [list.Item].
type missingItem struct {
	track models.ReferenceTrack
}

func (i missingItem) FilterValue() string { return i.track.String() }
func (i missingItem) Title() string       { return i.track.Title }
func (i missingItem) Description() string { return i.track.ArtistLine() }

func newMissingList(tracks []models.ReferenceTrack, width, height int) list.Model {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = missingItem{track: t}
	}
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "These songs couldn't be found"
	l.SetShowHelp(false)
	return l
}
