package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rango/internal/directory"
	"github.com/desertthunder/rango/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCategoriesFetched MsgKind = iota
	MsgPagesFetched
	MsgCategoryLiked
	MsgPageVisited
)

type categoriesFetched struct {
	categories []*models.Category
	err        error
}

type pagesFetched struct {
	view directory.CategoryView
	err  error
}

type categoryLiked struct {
	id    string
	likes int
	err   error
}

type pageVisited struct {
	page *models.Page
	err  error
}

// categoriesFetchedMsg is the constructor for [MsgCategoriesFetched]
func categoriesFetchedMsg(categories []*models.Category, err error) Msg {
	return Msg{kind: MsgCategoriesFetched, data: categoriesFetched{categories, err}}
}

// pagesFetchedMsg is the constructor for [MsgPagesFetched]
func pagesFetchedMsg(view directory.CategoryView, err error) Msg {
	return Msg{kind: MsgPagesFetched, data: pagesFetched{view, err}}
}

// categoryLikedMsg is the constructor for [MsgCategoryLiked]
func categoryLikedMsg(id string, likes int, err error) Msg {
	return Msg{kind: MsgCategoryLiked, data: categoryLiked{id, likes, err}}
}

// pageVisitedMsg is the constructor for [MsgPageVisited]
func pageVisitedMsg(page *models.Page, err error) Msg {
	return Msg{kind: MsgPageVisited, data: pageVisited{page, err}}
}
