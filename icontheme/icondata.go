package icontheme

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/bnema/icontheme/internal/keyfile"
)

const iconDataGroup = "Icon Data"

// IconData is the optional per-icon metadata read from a sidecar
// "<name>.icon" descriptor next to the image file.
type IconData struct {
	HasEmbeddedRect bool
	EmbeddedRect    image.Rectangle
	AttachPoints    []image.Point
	DisplayName     string
}

// loadIconData parses a sidecar descriptor. Missing keys are fine; a
// malformed EmbeddedTextRectangle or AttachPoints entry is an error so
// callers can warn and treat the descriptor as absent.
func loadIconData(path string) (*IconData, error) {
	kf, err := keyfile.Load(path)
	if err != nil {
		return nil, err
	}

	data := &IconData{}
	if kf.HasKey(iconDataGroup, "EmbeddedTextRectangle") {
		coords, err := kf.IntegerList(iconDataGroup, "EmbeddedTextRectangle")
		if err != nil {
			return nil, fmt.Errorf("%s: EmbeddedTextRectangle: %w", path, err)
		}
		if len(coords) != 4 {
			return nil, fmt.Errorf("%s: EmbeddedTextRectangle needs 4 integers, got %d", path, len(coords))
		}
		data.HasEmbeddedRect = true
		data.EmbeddedRect = image.Rect(coords[0], coords[1], coords[2], coords[3])
	}

	if kf.HasKey(iconDataGroup, "AttachPoints") {
		points, err := parseAttachPoints(kf.String(iconDataGroup, "AttachPoints"))
		if err != nil {
			return nil, fmt.Errorf("%s: AttachPoints: %w", path, err)
		}
		data.AttachPoints = points
	}

	data.DisplayName = kf.LocaleString(iconDataGroup, "DisplayName")
	return data, nil
}

// parseAttachPoints parses the pipe-separated "x,y|x,y" form.
func parseAttachPoints(value string) ([]image.Point, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	pairs := strings.Split(value, "|")
	points := make([]image.Point, 0, len(pairs))
	for _, pair := range pairs {
		xy := strings.SplitN(pair, ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("malformed attach point %q", pair)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xy[0]))
		if err != nil {
			return nil, err
		}
		y, err := strconv.Atoi(strings.TrimSpace(xy[1]))
		if err != nil {
			return nil, err
		}
		points = append(points, image.Point{X: x, Y: y})
	}
	return points, nil
}
