package track

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"

	"github.com/GintGld/kshana-timeline/internal/controller/suite"
)

var mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")

func setup(t *testing.T) *httpexpect.Expect {
	s := suite.New(t)
	s.OpenProject(t)
	return s.Authorized(t, New(s.Manager, s.JWT, time.Second, t.TempDir()))
}

func TestElements(t *testing.T) {
	e := setup(t)

	el := e.POST("/"+suite.Project+"/elements").
		WithJSON(map[string]any{"type": "text", "preset": "caption", "text": "Harbour, 1921", "start_time_seconds": 3}).
		Expect().
		Status(201).
		JSON().Object()
	el.HasValue("font_size", 24)
	el.HasValue("duration_seconds", 3)
	id := el.Value("id").String().Raw()

	e.POST("/"+suite.Project+"/elements").
		WithJSON(map[string]any{"type": "shape", "shape_type": "hexagon"}).
		Expect().
		Status(400).
		JSON().Object().HasValue("error", "unknown shape type")

	e.POST("/"+suite.Project+"/elements").
		WithJSON(map[string]any{"type": "sticker"}).
		Expect().
		Status(400)

	tracks := e.GET("/" + suite.Project).
		Expect().
		Status(200).
		JSON().Object().Value("tracks").Array()
	tracks.Length().IsEqual(2)
	tracks.Value(1).Object().HasValue("type", "text")

	e.DELETE("/" + suite.Project + "/elements/" + id).
		Expect().
		Status(200)

	e.DELETE("/" + suite.Project + "/elements/" + id).
		Expect().
		Status(404)
}

func TestImportClipByPath(t *testing.T) {
	e := setup(t)

	media := filepath.Join(t.TempDir(), "pier.mp4")
	if err := os.WriteFile(media, mp4Header, 0o644); err != nil {
		t.Fatal(err)
	}

	e.POST("/"+suite.Project+"/clips").
		WithJSON(map[string]string{"path": media}).
		Expect().
		Status(201).
		JSON().Object().
		HasValue("startTimeSeconds", 40).
		HasValue("durationSeconds", 7)

	e.POST("/"+suite.Project+"/clips").
		WithJSON(map[string]string{"path": filepath.Join(t.TempDir(), "missing.mp4")}).
		Expect().
		Status(400)
}

func TestImportClipUpload(t *testing.T) {
	e := setup(t)

	e.POST("/"+suite.Project+"/clips").
		WithMultipart().
		WithFileBytes("source", "pier.mp4", mp4Header).
		Expect().
		Status(201).
		JSON().Object().
		HasValue("startTimeSeconds", 40)

	e.POST("/"+suite.Project+"/clips").
		WithMultipart().
		WithFileBytes("source", "notes.txt", []byte("just some text")).
		Expect().
		Status(400).
		JSON().Object().HasValue("error", "unsupported media")
}
