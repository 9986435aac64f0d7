package theme

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
)

const artworkFetchTimeout = 5 * time.Second

// FetchArtwork loads hymn cover art from an http(s) or file:// URL.
func FetchArtwork(ctx context.Context, artworkURL string) (image.Image, error) {
	if artworkURL == "" {
		return nil, errors.New("empty artwork url")
	}

	if strings.HasPrefix(artworkURL, "file://") {
		f, err := os.Open(strings.TrimPrefix(artworkURL, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork file: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode artwork: %w", err)
		}
		return img, nil
	}

	ctx, cancel := context.WithTimeout(ctx, artworkFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}

// FromArtwork builds the Dynamic palette from cover art: k-means the
// prominent colors, rank by luminance, and spread them across the palette
// roles. Any failure falls back to Classic.
func FromArtwork(img image.Image) Palette {
	if img == nil {
		return Named(Classic)
	}

	// shrink before clustering; prominence, not detail, is what matters
	small := resize.Thumbnail(256, 256, img, resize.Lanczos3)

	clusters, err := prominentcolor.KmeansWithAll(
		5, small, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(clusters) < 3 {
		return Named(Classic)
	}

	hexes := make([]string, 0, len(clusters))
	for _, c := range clusters {
		hexes = append(hexes, "#"+c.AsString())
	}

	sort.Slice(hexes, func(i, j int) bool {
		return Luminance(hexes[i]) > Luminance(hexes[j])
	})

	primary := hexes[0]
	secondary := hexes[1]
	accent := hexes[len(hexes)/2]
	dim := hexes[len(hexes)-1]

	// a palette needs contrast between text and chrome; if the art is too
	// flat, keep the readable defaults
	if Luminance(primary)-Luminance(dim) < 0.15 {
		return Named(Classic)
	}

	return Palette{
		Name:      Dynamic,
		Primary:   primary,
		Secondary: secondary,
		Accent:    accent,
		Dim:       dim,
		Gradient:  GradientBetween(dim, accent, gradientSteps),
	}
}
