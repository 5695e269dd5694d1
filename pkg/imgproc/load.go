package imgproc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Load reads and decodes an image file (PNG, JPEG or GIF). JPEG files have
// their EXIF orientation applied so the returned image is upright.
func Load(path string) (*image.NRGBA, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	out := ToNRGBA(img)
	if isJPEG(b) {
		if o, err := jpegOrientation(b); err == nil {
			out = AutoOrient(out, o)
		}
	}
	return out, nil
}

func isJPEG(data []byte) bool {
	return len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF})
}

// jpegOrientation scans the JPEG segment stream for an APP1 Exif block and
// reads the orientation tag (0x0112) from its first IFD.
func jpegOrientation(data []byte) (int, error) {
	tiff, err := tiffStart(data)
	if err != nil {
		return 0, err
	}
	if tiff+8 > len(data) {
		return 0, fmt.Errorf("tiff header truncated")
	}
	var order binary.ByteOrder
	switch {
	case data[tiff] == 'M' && data[tiff+1] == 'M':
		order = binary.BigEndian
	case data[tiff] == 'I' && data[tiff+1] == 'I':
		order = binary.LittleEndian
	default:
		return 0, fmt.Errorf("unknown tiff byte order")
	}
	if order.Uint16(data[tiff+2:tiff+4]) != 0x002A {
		return 0, fmt.Errorf("invalid tiff magic")
	}
	ifd := tiff + int(order.Uint32(data[tiff+4:tiff+8]))
	if ifd+2 > len(data) {
		return 0, fmt.Errorf("ifd truncated")
	}
	entries := int(order.Uint16(data[ifd : ifd+2]))
	for e := 0; e < entries; e++ {
		ent := ifd + 2 + e*12
		if ent+12 > len(data) {
			break
		}
		if order.Uint16(data[ent:ent+2]) == 0x0112 {
			o := int(order.Uint16(data[ent+8 : ent+10]))
			if o >= 1 && o <= 8 {
				return o, nil
			}
			return 0, fmt.Errorf("orientation out of range: %d", o)
		}
	}
	return 0, fmt.Errorf("no orientation tag")
}

// tiffStart returns the offset of the TIFF header inside an APP1 Exif
// segment, or an error when the file carries none.
func tiffStart(data []byte) (int, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("data too short")
	}
	i := 2 // skip SOI
	for i+4 < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xFF { // fill byte before a marker
			i++
			continue
		}
		if marker == 0xDA { // start of scan
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if marker == 0xE1 && segLen >= 8 {
			if i+10 <= len(data) && string(data[i+4:i+10]) == "Exif\x00\x00" {
				return i + 10, nil
			}
		}
		if segLen <= 2 {
			i += 2
		} else {
			i += 2 + segLen
		}
	}
	return 0, fmt.Errorf("no exif segment")
}
