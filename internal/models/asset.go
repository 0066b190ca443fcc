package models

import "time"

// AssetType is the manifest type of a generated asset.
type AssetType string

const (
	AssetSceneImage       AssetType = "scene_image"
	AssetSceneVideo       AssetType = "scene_video"
	AssetSceneInfographic AssetType = "scene_infographic"
)

// Asset is one generated file of the asset manifest.
// Several assets may share a placement number, one per regeneration,
// with Version increasing per (placement, type).
type Asset struct {
	ID              string    `json:"id"`
	Type            AssetType `json:"type"`
	Path            string    `json:"path"`
	Version         int       `json:"version"`
	PlacementNumber *int      `json:"placementNumber,omitempty"`
	// SceneNumber is populated by legacy manifests only.
	SceneNumber *int      `json:"sceneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Matches reports whether the asset belongs to the placement number,
// either directly or through the legacy scene number.
func (a Asset) Matches(placementNumber int) bool {
	if a.PlacementNumber != nil && *a.PlacementNumber == placementNumber {
		return true
	}
	return a.SceneNumber != nil && *a.SceneNumber == placementNumber
}

// VersionSlot is the slot of an active-version selection.
type VersionSlot string

const (
	SlotImage VersionSlot = "image"
	SlotVideo VersionSlot = "video"
)

// VersionSelection pins asset versions for one placement.
// A nil slot means "use latest".
type VersionSelection struct {
	Image *int `json:"image,omitempty"`
	Video *int `json:"video,omitempty"`
}

func (s VersionSelection) Get(slot VersionSlot) *int {
	switch slot {
	case SlotImage:
		return s.Image
	case SlotVideo:
		return s.Video
	}
	return nil
}

func (s VersionSelection) empty() bool {
	return s.Image == nil && s.Video == nil
}

// ActiveVersions maps placement number to the user's pinned versions.
type ActiveVersions map[int]VersionSelection

// Pinned returns the pinned version for placement and slot, if any.
func (a ActiveVersions) Pinned(placementNumber int, slot VersionSlot) (int, bool) {
	sel, ok := a[placementNumber]
	if !ok {
		return 0, false
	}
	v := sel.Get(slot)
	if v == nil {
		return 0, false
	}
	return *v, true
}

// With returns a copy of a with the slot of placement set to version.
// A nil version clears the pin; empty selections are dropped.
func (a ActiveVersions) With(placementNumber int, slot VersionSlot, version *int) ActiveVersions {
	out := a.Clone()

	sel := out[placementNumber]
	var v *int
	if version != nil {
		v = new(int)
		*v = *version
	}
	switch slot {
	case SlotImage:
		sel.Image = v
	case SlotVideo:
		sel.Video = v
	}

	if sel.empty() {
		delete(out, placementNumber)
	} else {
		out[placementNumber] = sel
	}

	return out
}

// Clone deep-copies the selection map.
func (a ActiveVersions) Clone() ActiveVersions {
	out := make(ActiveVersions, len(a))
	for k, sel := range a {
		var c VersionSelection
		if sel.Image != nil {
			c.Image = new(int)
			*c.Image = *sel.Image
		}
		if sel.Video != nil {
			c.Video = new(int)
			*c.Video = *sel.Video
		}
		out[k] = c
	}
	return out
}
