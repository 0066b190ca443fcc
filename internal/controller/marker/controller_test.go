package marker

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/GintGld/kshana-timeline/internal/controller/suite"
)

func TestMarkers(t *testing.T) {
	s := suite.New(t)
	s.OpenProject(t)
	e := s.Authorized(t, New(s.Manager, s.JWT, time.Second))

	prompt := gofakeit.Sentence(5)

	m := e.POST("/"+suite.Project).
		WithJSON(map[string]any{"position": 12.5, "prompt": prompt}).
		Expect().
		Status(201).
		JSON().Object()
	m.HasValue("prompt", prompt)
	m.HasValue("status", "processing")
	id := m.Value("id").String().Raw()

	e.GET("/" + suite.Project).
		Expect().
		Status(200).
		JSON().Object().Value("markers").Array().Length().IsEqual(1)

	e.PUT("/"+suite.Project+"/"+id+"/position").
		WithJSON(map[string]float64{"position": 20}).
		Expect().
		Status(200).
		JSON().Object().HasValue("changed", true)

	e.PUT("/"+suite.Project+"/"+id+"/status").
		WithJSON(map[string]string{"status": "complete", "artifactId": "clip-88"}).
		Expect().
		Status(200).
		JSON().Object().
		HasValue("status", "complete").
		HasValue("generatedArtifactId", "clip-88")

	e.PUT("/"+suite.Project+"/"+id+"/status").
		WithJSON(map[string]string{"status": "pending"}).
		Expect().
		Status(409)

	e.PUT("/"+suite.Project+"/"+id+"/status").
		WithJSON(map[string]string{"status": "lost"}).
		Expect().
		Status(400)

	e.DELETE("/" + suite.Project + "/" + id).
		Expect().
		Status(200)

	e.DELETE("/" + suite.Project + "/" + id).
		Expect().
		Status(404)
}

func TestCreateMarkerInvalid(t *testing.T) {
	s := suite.New(t)
	s.OpenProject(t)
	e := s.Authorized(t, New(s.Manager, s.JWT, time.Second))

	testCases := []struct {
		desc   string
		form   map[string]any
		status int
	}{
		{desc: "no position", form: map[string]any{"prompt": "pier"}, status: 400},
		{desc: "empty prompt", form: map[string]any{"position": 1, "prompt": "  "}, status: 400},
		{desc: "negative position", form: map[string]any{"position": -1, "prompt": "pier"}, status: 400},
		{desc: "past the end", form: map[string]any{"position": 400, "prompt": "pier"}, status: 400},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			e.POST("/" + suite.Project).
				WithJSON(tC.form).
				Expect().
				Status(tC.status)
		})
	}
}
