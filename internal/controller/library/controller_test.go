package library

import (
	"testing"

	"github.com/GintGld/kshana-timeline/internal/controller/suite"
	"github.com/GintGld/kshana-timeline/internal/lib/logger/slogdiscard"
	"github.com/GintGld/kshana-timeline/internal/service/library"
)

func TestSearch(t *testing.T) {
	s := suite.New(t)
	s.OpenProject(t)
	e := s.Authorized(t, New(s.Manager, library.New(slogdiscard.NewDiscardLogger()), s.JWT))

	hits := e.GET("/"+suite.Project).
		WithQuery("q", "drone").
		Expect().
		Status(200).
		JSON().Object().Value("hits").Array()
	hits.Length().IsEqual(1)
	hits.Value(0).Object().Value("placement").Object().HasValue("placementNumber", 2)

	e.GET("/"+suite.Project).
		Expect().
		Status(200).
		JSON().Object().Value("hits").Array().Length().IsEqual(3)

	e.GET("/"+suite.Project).
		WithQuery("kinds", "image,infographic").
		WithQuery("limit", 1).
		Expect().
		Status(200).
		JSON().Object().Value("hits").Array().Length().IsEqual(1)

	e.GET("/"+suite.Project).
		WithQuery("kinds", "podcast").
		Expect().
		Status(400)

	e.GET("/closed").
		Expect().
		Status(409)
}
