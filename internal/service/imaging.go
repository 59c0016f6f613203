package service

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// decodedMIME maps image.Decode format names to the MIME type uploads may
// declare for them.
var decodedMIME = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// mediaType strips parameters and folds the legacy image/jpg alias.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

func allowedMIME(contentType string) bool {
	mt := mediaType(contentType)
	for _, v := range decodedMIME {
		if v == mt {
			return true
		}
	}
	return false
}

// fitWithin scales src down, keeping aspect, until both sides fit in box.
// Smaller images are returned untouched.
func fitWithin(src image.Image, box int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || (w <= box && h <= box) {
		return src
	}
	longest := max(w, h)
	nw := max(w*box/longest, 1)
	nh := max(h*box/longest, 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// squareCrop keeps the largest centred square.
func squareCrop(src image.Image) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 {
		return src
	}
	origin := image.Pt(b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2)
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, origin, draw.Src)
	return dst
}

// rendition is one encoded output of an upload.
type rendition struct {
	suffix      string
	contentType string
	data        []byte
}

func encodeRenditions(img image.Image) ([]rendition, error) {
	var jpg, wp bytes.Buffer
	if err := jpeg.Encode(&jpg, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	if err := webp.Encode(&wp, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return []rendition{
		{suffix: "master.jpg", contentType: "image/jpeg", data: jpg.Bytes()},
		{suffix: "master.webp", contentType: "image/webp", data: wp.Bytes()},
	}, nil
}
