package detect

import (
	"testing"

	"moulding-cropper/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalogStacksCandidates(t *testing.T) {
	s := session.New(2000, 3000)
	SeedCatalog(s, []Candidate{
		{Text: "1001"},
		{Text: "1002"},
		{Text: "1003"},
	})

	boxes := s.Boxes()
	require.Len(t, boxes, 3)
	for i, b := range boxes {
		assert.Equal(t, 40.0, b.X)
		assert.Equal(t, float64(40+i*260), b.Y)
		assert.Equal(t, 600.0, b.Width)
		assert.Equal(t, 220.0, b.Height)
	}
	assert.Equal(t, "1001", boxes[0].Label)
	assert.Equal(t, "1002", boxes[1].Label)
	assert.Equal(t, "1003", boxes[2].Label)
}

func TestSeedCatalogPlaceholderWhenEmpty(t *testing.T) {
	s := session.New(2000, 3000)
	SeedCatalog(s, nil)

	boxes := s.Boxes()
	require.Len(t, boxes, 1)
	assert.Empty(t, boxes[0].Label)
	assert.Equal(t, 600.0, boxes[0].Width)
}

func TestSeedScreenshotAlwaysTwoSymmetricBoxes(t *testing.T) {
	s := session.New(1000, 800)
	SeedScreenshot(s, []Candidate{{Text: "50718"}})

	boxes := s.Boxes()
	require.Len(t, boxes, 2)

	left, right := boxes[0], boxes[1]
	assert.Equal(t, 60.0, left.X)
	assert.Equal(t, 200.0, left.Y)
	assert.Equal(t, 380.0, left.Width)
	assert.Equal(t, 400.0, left.Height)

	// Mirrored column position, identical size.
	assert.Equal(t, 1000-60-380.0, right.X)
	assert.Equal(t, left.Y, right.Y)
	assert.Equal(t, left.Width, right.Width)
	assert.Equal(t, left.Height, right.Height)

	assert.Equal(t, "50718", left.Label)
	assert.Empty(t, right.Label)
}

func TestSeedScreenshotLabelsBothWhenDetected(t *testing.T) {
	s := session.New(1000, 800)
	SeedScreenshot(s, []Candidate{{Text: "50718"}, {Text: "50719"}, {Text: "50720"}})

	boxes := s.Boxes()
	require.Len(t, boxes, 2)
	assert.Equal(t, "50718", boxes[0].Label)
	assert.Equal(t, "50719", boxes[1].Label)
}
