package gocvcam

import (
	"fmt"

	"gocv.io/x/gocv"

	"flock-camera-sensor/camera"
)

func supported(format camera.PixelFormat) bool {
	switch format {
	case camera.PixelFormatJPEG, camera.PixelFormatRGB565, camera.PixelFormatRGB888, camera.PixelFormatGrayscale:
		return true
	}
	return false
}

// encodeFrame renders a BGR or single-channel capture into format. JPEG data
// stays in native memory until release is called; raw formats are copied
// and release is nil.
func encodeFrame(mat gocv.Mat, format camera.PixelFormat, quality uint8) ([]byte, func(), error) {
	gray := mat.Channels() == 1

	switch format {
	case camera.PixelFormatJPEG:
		params := []int{int(gocv.IMWriteJpegQuality), jpegQuality(quality)}
		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, params)
		if err != nil {
			return nil, nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.GetBytes(), buf.Close, nil

	case camera.PixelFormatRGB565:
		code := gocv.ColorBGRToBGR565
		if gray {
			code = gocv.ColorGrayToBGR565
		}
		b := convert(mat, code)
		// OpenCV packs little-endian; the sensor streams the high byte first.
		for i := 0; i+1 < len(b); i += 2 {
			b[i], b[i+1] = b[i+1], b[i]
		}
		return b, nil, nil

	case camera.PixelFormatRGB888:
		if gray {
			return convert(mat, gocv.ColorGrayToBGR), nil, nil
		}
		return convert(mat, gocv.ColorBGRToRGB), nil, nil

	case camera.PixelFormatGrayscale:
		if gray {
			return mat.ToBytes(), nil, nil
		}
		return convert(mat, gocv.ColorBGRToGray), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: pixel format %s", camera.ErrUnsupported, format)
}

func convert(mat gocv.Mat, code gocv.ColorConversionCode) []byte {
	out := gocv.NewMat()
	defer out.Close()
	gocv.CvtColor(mat, &out, code)
	return out.ToBytes()
}
