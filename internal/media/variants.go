package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Size is a named target width for a derived image.
type Size struct {
	Name  string
	Width int
}

var DefaultSizes = []Size{
	{Name: "thumbnail", Width: 150},
	{Name: "medium", Width: 300},
	{Name: "large", Width: 1024},
}

// Variant is an encoded, downscaled copy of an image.
type Variant struct {
	Name     string
	FileName string
	Width    int
	Height   int
	Data     []byte
}

// Dimensions returns the pixel size and format of an encoded image.
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// GenerateVariants scales the image down to each size narrower than the
// original, keeping the aspect ratio. Variant files are named
// "<base>-<w>x<h><ext>" after fileName.
func GenerateVariants(data []byte, fileName string, sizes []Size) ([]Variant, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	encodeAs := "jpeg"
	switch format {
	case "png":
		encodeAs = "png"
	case "jpeg":
	default:
		ext = ".jpg"
	}

	var variants []Variant
	for _, size := range sizes {
		if size.Width <= 0 || size.Width >= bounds.Dx() {
			continue
		}
		height := bounds.Dy() * size.Width / bounds.Dx()
		if height < 1 {
			height = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, size.Width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		var buf bytes.Buffer
		if encodeAs == "png" {
			err = png.Encode(&buf, dst)
		} else {
			err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 82})
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s variant: %w", size.Name, err)
		}

		variants = append(variants, Variant{
			Name:     size.Name,
			FileName: fmt.Sprintf("%s-%dx%d%s", base, size.Width, height, ext),
			Width:    size.Width,
			Height:   height,
			Data:     buf.Bytes(),
		})
	}

	return variants, nil
}
