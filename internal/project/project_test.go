package project

import (
	"os"
	"path/filepath"
	"testing"

	"moulding-cropper/internal/session"
	"moulding-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/scans/page12.mcproj", PathFor("/scans/page12.jpg"))
	assert.Equal(t, "shot.mcproj", PathFor("shot.png"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page12.mcproj")

	f := New()
	f.Mode = "catalog"
	f.Vendor = "orac"
	f.SetImage(path, filepath.Join(dir, "page12.jpg"))
	f.Boxes = []Box{
		{X: 40, Y: 40, Width: 600, Height: 220, Rotation: 0.45, Label: "50718"},
		{X: 40, Y: 300, Width: 600, Height: 220, FlipVertical: true},
	}
	require.NoError(t, f.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f.Boxes, got.Boxes)
	assert.Equal(t, "catalog", got.Mode)
	assert.Equal(t, "page12.jpg", got.ImagePath)
	assert.Equal(t, filepath.Join(dir, "page12.jpg"), got.GetImagePath(path))
}

func TestCaptureApplyRoundTrip(t *testing.T) {
	src := session.New(2000, 3000)
	a := src.Add(geometry.NewRect(40, 40, 600, 220), "50718")
	b := src.Add(geometry.NewRect(40, 300, 600, 220), "50719")
	require.NoError(t, src.Rotate(a, 3))
	require.NoError(t, src.Rotate(b, -2))
	require.NoError(t, src.SetFlip(b, true))

	f := New()
	f.Capture(src)

	dst := session.New(2000, 3000)
	f.Apply(dst)

	got := dst.Boxes()
	want := src.Boxes()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].X, got[i].X)
		assert.Equal(t, want[i].Label, got[i].Label)
		assert.InDelta(t, want[i].Rotation, got[i].Rotation, 1e-9)
		assert.Equal(t, want[i].FlipVertical, got[i].FlipVertical)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.mcproj"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.mcproj")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
